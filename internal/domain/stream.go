package domain

// Stream event types emitted on the newline-delimited export stream.
// Zero or more progress events are followed by exactly one file or error
// event; the terminal event ends the useful life of the stream.
const (
	StreamEventProgress = "progress"
	StreamEventFile     = "file"
	StreamEventError    = "error"
)

// StreamEvent is one record of the export stream protocol. The Type field
// selects which of the remaining fields are meaningful.
type StreamEvent struct {
	Type string `json:"type"`

	// progress fields
	Phase   string `json:"phase,omitempty"`
	Fetched int    `json:"fetched,omitempty"`
	Total   int    `json:"total,omitempty"`

	// file fields
	Data        string `json:"data,omitempty"` // base64 payload
	ContentType string `json:"contentType,omitempty"`
	Filename    string `json:"filename,omitempty"`

	// error fields
	Message string `json:"message,omitempty"`
}

// Terminal reports whether this event ends the stream protocol.
func (e StreamEvent) Terminal() bool {
	return e.Type == StreamEventFile || e.Type == StreamEventError
}
