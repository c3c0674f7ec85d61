package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jetpackmatt/freightdesk/internal/artifact"
	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// ExportHandler produces the newline-delimited export stream.
type ExportHandler struct {
	dataset *Dataset
	logger  *slog.Logger
}

// NewExportHandler creates an export stream handler.
func NewExportHandler(dataset *Dataset, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{dataset: dataset, logger: logger}
}

// ExportStreamRequest is the request body for a streaming export.
type ExportStreamRequest struct {
	Source string `json:"source"`
	// StepDelayMs slows event emission for manual testing of the
	// progress indicator. Zero emits as fast as the client reads.
	StepDelayMs int `json:"step_delay_ms,omitempty"`
}

// Stream emits progress events for the requested dataset followed by a
// single file event carrying the CSV artifact, one JSON record per line.
// Errors surface as a terminal error event on the stream itself.
func (h *ExportHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req ExportStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error": "streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	emit := func(ev domain.StreamEvent) bool {
		if err := enc.Encode(ev); err != nil {
			h.logger.Warn("export stream write failed", "error", err)
			return false
		}
		flusher.Flush()
		if req.StepDelayMs > 0 {
			select {
			case <-r.Context().Done():
				return false
			case <-time.After(time.Duration(req.StepDelayMs) * time.Millisecond):
			}
		}
		return r.Context().Err() == nil
	}

	source := domain.Source(req.Source)
	rows, err := h.dataset.All(source)
	if err != nil {
		msg := "export failed"
		if errors.Is(err, domain.ErrSourceNotFound) {
			msg = fmt.Sprintf("unknown source %q", req.Source)
		}
		emit(domain.StreamEvent{Type: domain.StreamEventError, Message: msg})
		return
	}

	// Fetch phase: report progress in chunks the way the real backend
	// pages through its database.
	const chunk = 100
	for fetched := 0; fetched < len(rows); {
		fetched += chunk
		if fetched > len(rows) {
			fetched = len(rows)
		}
		if !emit(domain.StreamEvent{
			Type:    domain.StreamEventProgress,
			Phase:   "shipments",
			Fetched: fetched,
			Total:   len(rows),
		}) {
			return
		}
	}

	if !emit(domain.StreamEvent{
		Type:    domain.StreamEventProgress,
		Phase:   "details",
		Fetched: len(rows),
		Total:   len(rows),
	}) {
		return
	}

	data, err := artifact.MarshalCSV(rows)
	if err != nil {
		h.logger.Error("failed to build export csv", "source", source, "error", err)
		emit(domain.StreamEvent{Type: domain.StreamEventError, Message: "failed to generate file"})
		return
	}

	emit(domain.StreamEvent{
		Type:        domain.StreamEventFile,
		Data:        base64.StdEncoding.EncodeToString(data),
		ContentType: "text/csv",
		Filename:    fmt.Sprintf("%s-%s.csv", source, time.Now().Format("2006-01-02")),
	})
}
