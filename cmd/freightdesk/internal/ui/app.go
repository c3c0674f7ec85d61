// Package ui provides the terminal user interface for the freightdesk
// back-office export client.
package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jetpackmatt/freightdesk/internal/artifact"
	"github.com/jetpackmatt/freightdesk/internal/config"
	"github.com/jetpackmatt/freightdesk/internal/domain"
	"github.com/jetpackmatt/freightdesk/internal/export"
	"github.com/jetpackmatt/freightdesk/internal/pager"
)

// sourceEntry pairs a dataset with its server-reported row count.
type sourceEntry struct {
	Source domain.Source
	Total  int
}

// App is the main TUI application.
type App struct {
	app    *tview.Application
	cfg    *config.Config
	logger *slog.Logger

	engine *export.Engine
	pager  *pager.Client
	saver  *artifact.Saver

	sources []sourceEntry

	// UI components
	mainFlex   *tview.Flex
	header     *tview.TextView
	sourceList *tview.List
	progress   *tview.TextView
	statusBar  *tview.TextView
	footer     *tview.TextView

	unsubscribe func()
	pulseFrame  int
}

// NewApp creates the TUI application and wires it to the export engine.
func NewApp(cfg *config.Config, engine *export.Engine, pagerClient *pager.Client, saver *artifact.Saver, logger *slog.Logger) *App {
	a := &App{
		app:    tview.NewApplication(),
		cfg:    cfg,
		logger: logger,
		engine: engine,
		pager:  pagerClient,
		saver:  saver,
	}

	a.setupUI()
	return a
}

func (a *App) setupUI() {
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetText("[::b]freightdesk[-::-]  back-office export")

	a.sourceList = tview.NewList().ShowSecondaryText(true)
	a.sourceList.SetBorder(true).SetTitle(" Datasets ")

	a.progress = tview.NewTextView().
		SetDynamicColors(true)
	a.progress.SetBorder(true).SetTitle(" Export ")

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true)

	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetText("[yellow]enter[-] stream export  [yellow]c[-] client export  [yellow]x[-] cancel  [yellow]q[-] quit")

	a.mainFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.sourceList, 0, 1, true).
		AddItem(a.progress, 5, 0, false).
		AddItem(a.statusBar, 1, 0, false).
		AddItem(a.footer, 1, 0, false)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEnter:
			a.startStreaming()
			return nil
		case event.Rune() == 'c':
			a.startClient()
			return nil
		case event.Rune() == 'x':
			a.engine.Cancel()
			a.setStatus("[yellow]Export cancelled")
			return nil
		case event.Rune() == 'q', event.Key() == tcell.KeyCtrlC:
			a.app.Stop()
			return nil
		}
		return event
	})

	a.app.SetRoot(a.mainFlex, true)
}

// Run loads the source list, subscribes to export state, and runs the event
// loop until quit.
func (a *App) Run() error {
	if err := a.loadSources(); err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	a.unsubscribe = a.engine.Store().Subscribe(func() {
		a.app.QueueUpdateDraw(a.renderProgress)
	})
	defer a.unsubscribe()

	// Pulse tick for the indeterminate indicator.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if a.engine.Store().Snapshot().Exporting {
					a.app.QueueUpdateDraw(a.renderProgress)
				}
			}
		}
	}()

	a.renderProgress()
	return a.app.Run()
}

// loadSources asks the backend for the datasets and their row counts.
func (a *App) loadSources() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.API.BaseURL+"/api/v1/sources", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", a.cfg.API.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var infos []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Total int    `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return err
	}

	a.sources = a.sources[:0]
	a.sourceList.Clear()
	for _, info := range infos {
		src := domain.Source(info.ID)
		a.sources = append(a.sources, sourceEntry{Source: src, Total: info.Total})
		a.sourceList.AddItem(src.Label(), fmt.Sprintf("%d records", info.Total), 0, nil)
	}
	return nil
}

func (a *App) selected() (sourceEntry, bool) {
	i := a.sourceList.GetCurrentItem()
	if i < 0 || i >= len(a.sources) {
		return sourceEntry{}, false
	}
	return a.sources[i], true
}

func (a *App) startStreaming() {
	entry, ok := a.selected()
	if !ok {
		return
	}

	header := http.Header{}
	header.Set("X-API-Key", a.cfg.API.APIKey)

	a.engine.StartStreamingExport(export.StreamingOptions{
		URL:        a.cfg.API.BaseURL + "/api/v1/export/stream",
		Body:       map[string]string{"source": entry.Source.String()},
		Header:     header,
		Source:     entry.Source,
		TotalCount: entry.Total,
		OnSuccess: func() {
			a.app.QueueUpdateDraw(func() {
				a.setStatus(fmt.Sprintf("[green]Export of %s complete", entry.Source.Label()))
			})
		},
		OnError: func(err error) {
			a.app.QueueUpdateDraw(func() {
				a.setStatus(fmt.Sprintf("[red]Export failed: %v", err))
			})
		},
	})
}

func (a *App) startClient() {
	entry, ok := a.selected()
	if !ok {
		return
	}

	name := fmt.Sprintf("%s-%s.csv", entry.Source, time.Now().Format("2006-01-02"))

	a.engine.StartClientExport(export.ClientOptions{
		Endpoint:   "/api/v1/" + entry.Source.String(),
		Source:     entry.Source,
		TotalCount: entry.Total,
		Fetch:      a.pager.FetchAll,
		Write: func(rows []domain.Record) (string, error) {
			return a.saver.SaveCSV(name, rows)
		},
		OnSuccess: func() {
			a.app.QueueUpdateDraw(func() {
				a.setStatus(fmt.Sprintf("[green]Saved %s", name))
			})
		},
		OnError: func(err error) {
			a.app.QueueUpdateDraw(func() {
				a.setStatus(fmt.Sprintf("[red]Export failed: %v", err))
			})
		},
	})
}

func (a *App) setStatus(msg string) {
	a.statusBar.SetText(msg)
}
