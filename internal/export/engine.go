package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jetpackmatt/freightdesk/internal/domain"
	"github.com/jetpackmatt/freightdesk/internal/history"
)

// exportTimeout is the safety deadline for a single export job. If the job
// has not completed by then it is cancelled exactly as if the user had
// cancelled it.
const exportTimeout = 6 * time.Minute

// ArtifactSaver hands a completed export artifact to the host environment.
type ArtifactSaver interface {
	Save(name, contentType string, data []byte) (path string, err error)
	SaveCSV(name string, rows []domain.Record) (path string, err error)
}

// Recorder persists terminal export outcomes. Optional.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// PageFetcher is the client-export paging collaborator: it drains a listing
// endpoint page by page, reporting (fetched, total) after every page, and
// returns the full record set.
type PageFetcher func(ctx context.Context, endpoint string, params url.Values, onProgress func(fetched, total int)) ([]domain.Record, error)

// StreamingOptions configures a server-streamed export.
type StreamingOptions struct {
	URL        string
	Body       any
	Header     http.Header
	Source     domain.Source
	TotalCount int
	OnSuccess  func()
	OnError    func(error)
}

// ClientOptions configures a client-orchestrated paginated export.
type ClientOptions struct {
	Endpoint   string
	Params     url.Values
	Source     domain.Source
	TotalCount int
	Fetch      PageFetcher
	// Write serializes the collected rows into the artifact and returns
	// the saved path.
	Write     func(rows []domain.Record) (string, error)
	OnSuccess func()
	OnError   func(error)
}

// Config configures an Engine.
type Config struct {
	Client   *http.Client
	Saver    ArtifactSaver
	Recorder Recorder
	Logger   *slog.Logger
	// Timeout overrides the safety deadline. Zero means the default;
	// callers cannot set it per export.
	Timeout time.Duration
}

// Engine owns the single allowed in-flight export. Starting an export while
// one is running is a silent no-op; the running job can only be influenced
// through Cancel or the safety timer, and it always restores the store to
// idle on the way out regardless of which exit path it takes.
type Engine struct {
	store    *Store
	client   *http.Client
	saver    ArtifactSaver
	recorder Recorder
	logger   *slog.Logger
	timeout  time.Duration

	mu     sync.Mutex
	busy   bool
	gen    uint64
	cancel context.CancelFunc
	timer  *time.Timer
}

// NewEngine creates an export engine publishing to store.
func NewEngine(store *Store, cfg Config) *Engine {
	if cfg.Client == nil {
		// Streaming exports run long; per-read liveness comes from the
		// safety timer, not a client timeout.
		cfg.Client = &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: 30 * time.Second},
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = exportTimeout
	}
	return &Engine{
		store:    store,
		client:   cfg.Client,
		saver:    cfg.Saver,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		timeout:  cfg.Timeout,
	}
}

// Store returns the state store the engine publishes to.
func (e *Engine) Store() *Store {
	return e.store
}

// StartStreamingExport begins a server-streamed export. It returns
// immediately; the job runs detached from the caller. A job already in
// flight makes this a no-op.
func (e *Engine) StartStreamingExport(opts StreamingOptions) {
	ctx, gen, ok := e.begin(opts.Source, opts.TotalCount)
	if !ok {
		return
	}
	go e.run(ctx, gen, opts.Source, "streaming", opts.OnSuccess, opts.OnError, func() (jobResult, error) {
		return e.runStreaming(ctx, opts)
	})
}

// StartClientExport begins a client-orchestrated paginated export. Same
// single-flight, timeout, and cleanup semantics as StartStreamingExport.
func (e *Engine) StartClientExport(opts ClientOptions) {
	ctx, gen, ok := e.begin(opts.Source, opts.TotalCount)
	if !ok {
		return
	}
	go e.run(ctx, gen, opts.Source, "client", opts.OnSuccess, opts.OnError, func() (jobResult, error) {
		return e.runClient(ctx, opts)
	})
}

// Cancel aborts the running export, if any. Idempotent; safe with no job
// active. Cancellation is silent: the job's OnError is never invoked for it.
func (e *Engine) Cancel() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.busy = false
	// Invalidate the running job's deferred cleanup so it cannot clobber
	// a job started after this cancel.
	e.gen++
	e.mu.Unlock()

	e.store.reset()
}

// begin claims the single job slot, publishes the starting state, and arms
// the safety timer. Returns ok=false when a job is already running.
func (e *Engine) begin(source domain.Source, totalCount int) (context.Context, uint64, bool) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		e.logger.Debug("export already in progress, ignoring start", "source", source)
		return nil, 0, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.busy = true
	e.gen++
	gen := e.gen
	e.cancel = cancel
	e.timer = time.AfterFunc(e.timeout, func() {
		e.logger.Warn("export exceeded safety timeout, cancelling", "source", source, "timeout", e.timeout)
		e.Cancel()
	})
	e.mu.Unlock()

	e.store.setProgress(&domain.ExportProgress{
		Phase:   domain.PhaseStarting,
		Fetched: 0,
		Total:   totalCount,
		Source:  source.String(),
	})
	return ctx, gen, true
}

// finish releases the job slot and restores the idle state. Runs on every
// exit path, but only while its job still owns the slot.
func (e *Engine) finish(gen uint64) {
	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		return
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.busy = false
	e.mu.Unlock()

	e.store.reset()
}

// jobResult summarizes a completed job for the history log.
type jobResult struct {
	rows     int
	filename string
}

// run executes one detached export job end to end.
func (e *Engine) run(ctx context.Context, gen uint64, source domain.Source, mode string, onSuccess func(), onError func(error), fn func() (jobResult, error)) {
	started := time.Now().UTC()
	defer e.finish(gen)

	res, err := fn()
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation (manual or timeout) is not a failure.
			e.record(source, mode, history.StatusCancelled, res, "", started)
			return
		}
		e.logger.Error("export failed", "source", source, "mode", mode, "error", err)
		e.record(source, mode, history.StatusFailed, res, err.Error(), started)
		if onError != nil {
			onError(err)
		}
		return
	}

	e.record(source, mode, history.StatusSuccess, res, "", started)
	if onSuccess != nil {
		onSuccess()
	}
}

func (e *Engine) record(source domain.Source, mode string, status history.Status, res jobResult, errMsg string, started time.Time) {
	if e.recorder == nil {
		return
	}
	entry := history.Entry{
		Source:     source.String(),
		Mode:       mode,
		Status:     status,
		Rows:       res.rows,
		Filename:   res.filename,
		Error:      errMsg,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if err := e.recorder.Record(context.Background(), entry); err != nil {
		e.logger.Warn("failed to record export history", "error", err)
	}
}

// runStreaming drives the server-streamed protocol: progress events update
// the store, the file event becomes the saved artifact, an error event or a
// malformed line fails the job.
func (e *Engine) runStreaming(ctx context.Context, opts StreamingOptions) (jobResult, error) {
	var res jobResult

	body, err := json.Marshal(opts.Body)
	if err != nil {
		return res, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range opts.Header {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return res, domain.ErrNoResponseBody
	}

	reader := NewEventReader(resp.Body)
	terminal := false

	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}

		if terminal {
			// Protocol quirk: some servers keep talking after the
			// terminal record. Nothing useful can follow it.
			e.logger.Warn("ignoring event after terminal record", "type", ev.Type, "source", opts.Source)
			continue
		}

		switch ev.Type {
		case domain.StreamEventProgress:
			if ctx.Err() != nil {
				continue
			}
			total := ev.Total
			if total == 0 {
				total = opts.TotalCount
			}
			res.rows = ev.Fetched
			e.store.setProgress(&domain.ExportProgress{
				Phase:   domain.PhaseLabel(ev.Phase),
				Fetched: ev.Fetched,
				Total:   total,
				Source:  opts.Source.String(),
			})

		case domain.StreamEventFile:
			terminal = true
			data, err := base64.StdEncoding.DecodeString(ev.Data)
			if err != nil {
				return res, fmt.Errorf("decode file payload: %w", err)
			}
			path, err := e.saver.Save(ev.Filename, ev.ContentType, data)
			if err != nil {
				return res, fmt.Errorf("save artifact: %w", err)
			}
			res.filename = ev.Filename
			e.logger.Info("export artifact saved",
				"source", opts.Source,
				"filename", ev.Filename,
				"content_type", ev.ContentType,
				"bytes", len(data),
				"path", path,
			)

		case domain.StreamEventError:
			return res, &domain.ServerError{Message: ev.Message}

		default:
			e.logger.Warn("unknown stream event type", "type", ev.Type)
		}
	}

	if !terminal {
		return res, domain.ErrStreamTruncated
	}
	return res, nil
}

// runClient drives a paginated fetch through the caller's collaborator and
// hands the collected rows to the caller's writer.
func (e *Engine) runClient(ctx context.Context, opts ClientOptions) (jobResult, error) {
	var res jobResult

	rows, err := opts.Fetch(ctx, opts.Endpoint, opts.Params, func(fetched, total int) {
		if ctx.Err() != nil {
			return
		}
		res.rows = fetched
		e.store.setProgress(&domain.ExportProgress{
			Phase:   domain.PhaseFetching,
			Fetched: fetched,
			Total:   total,
			Source:  opts.Source.String(),
		})
	})
	if err != nil {
		return res, fmt.Errorf("fetch pages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.rows = len(rows)
	e.store.setProgress(&domain.ExportProgress{
		Phase:   domain.PhaseGenerating,
		Fetched: len(rows),
		Total:   len(rows),
		Source:  opts.Source.String(),
	})

	path, err := opts.Write(rows)
	if err != nil {
		return res, fmt.Errorf("write export: %w", err)
	}
	res.filename = path
	e.logger.Info("client export written", "source", opts.Source, "rows", len(rows), "path", path)
	return res, nil
}
