package domain

import "errors"

// Domain errors.
var (
	// ErrExportInProgress is returned when an export is already running.
	ErrExportInProgress = errors.New("export already in progress")

	// ErrNoResponseBody is returned when the export endpoint responds
	// without a readable body.
	ErrNoResponseBody = errors.New("export response has no body")

	// ErrStreamTruncated is returned when the stream ends before a
	// terminal file or error event.
	ErrStreamTruncated = errors.New("export stream ended without terminal event")

	// ErrInvalidAPIKey is returned when the API key is rejected.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrSourceNotFound is returned for an unknown dataset.
	ErrSourceNotFound = errors.New("unknown export source")

	// ErrStorageFull is returned when there is insufficient disk space
	// for the export artifact.
	ErrStorageFull = errors.New("insufficient disk space for export")
)

// ServerError carries an error message reported by the server on the export
// stream.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return "export failed on server"
	}
	return "export failed on server: " + e.Message
}

// ExportError wraps an error with export job context.
type ExportError struct {
	Source Source
	Op     string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Source != "" {
		return e.Op + " [" + e.Source.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewExportError creates a new ExportError.
func NewExportError(source Source, op string, err error) *ExportError {
	return &ExportError{Source: source, Op: op, Err: err}
}
