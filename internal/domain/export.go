package domain

// ExportProgress is a snapshot of a running export, published to observers
// after every server event or fetched page.
type ExportProgress struct {
	Phase   string `json:"phase"`
	Fetched int    `json:"fetched"`
	Total   int    `json:"total"`
	Source  string `json:"source"`
}

// ExportState is the shared observable export status. Progress is nil exactly
// when no export is active; both fields are always updated together.
type ExportState struct {
	Progress  *ExportProgress `json:"progress"`
	Exporting bool            `json:"exporting"`
}

// Idle reports whether no export is running.
func (s ExportState) Idle() bool {
	return !s.Exporting && s.Progress == nil
}

// Human-readable phase labels shown by the progress indicator.
const (
	PhaseStarting   = "Starting export..."
	PhaseFetching   = "Fetching records for export"
	PhaseFinalizing = "Finalizing export"
	PhaseGenerating = "Generating File"
)

// PhaseLabel maps a server-side phase tag to its display label. Unknown tags
// mean the server has moved past record fetching and is building the file.
func PhaseLabel(tag string) string {
	switch tag {
	case "shipments":
		return PhaseFetching
	case "details":
		return PhaseFinalizing
	default:
		return PhaseGenerating
	}
}
