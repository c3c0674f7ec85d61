package ui

import (
	"fmt"
	"strings"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

var pulseFrames = []string{"·  ", "·· ", "···", " ··", "  ·", "   "}

// renderProgress redraws the export panel from the latest store snapshot.
// Pure derivation; the panel holds no state of its own.
func (a *App) renderProgress() {
	state := a.engine.Store().Snapshot()
	if !state.Exporting || state.Progress == nil {
		a.progress.SetText("[gray]No export running")
		return
	}

	p := state.Progress
	a.pulseFrame++

	var b strings.Builder
	fmt.Fprintf(&b, "[::b]%s[-::-]\n", p.Phase)

	if p.Phase == domain.PhaseFetching && p.Total > 0 {
		pct := p.Fetched * 100 / p.Total
		if pct > 100 {
			pct = 100
		}
		fmt.Fprintf(&b, "%s %3d%%\n", bar(pct, 30), pct)
	} else {
		// Indeterminate: the server is working, counters mean nothing.
		fmt.Fprintf(&b, "%s\n", pulseFrames[a.pulseFrame%len(pulseFrames)])
	}

	if p.Total > 0 {
		fmt.Fprintf(&b, "%d/%d records (%s)", p.Fetched, p.Total, p.Source)
	} else {
		fmt.Fprintf(&b, "%d records (%s)", p.Fetched, p.Source)
	}

	a.progress.SetText(b.String())
}

func bar(pct, width int) string {
	filled := pct * width / 100
	return "[green]" + strings.Repeat("█", filled) + "[gray]" + strings.Repeat("░", width-filled) + "[-]"
}
