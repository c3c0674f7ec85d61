package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// ListingHandler serves paginated dataset rows.
type ListingHandler struct {
	dataset *Dataset
	logger  *slog.Logger
}

// NewListingHandler creates a listing handler over the canned dataset.
func NewListingHandler(dataset *Dataset, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{dataset: dataset, logger: logger}
}

// ListingResponse is one page of rows.
type ListingResponse struct {
	Rows  []domain.Record `json:"rows"`
	Total int             `json:"total"`
}

// Sources lists the exportable datasets.
func (h *ListingHandler) Sources(w http.ResponseWriter, r *http.Request) {
	type sourceInfo struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Total int    `json:"total"`
	}

	var out []sourceInfo
	for _, s := range domain.Sources() {
		total, _ := h.dataset.Total(s)
		out = append(out, sourceInfo{ID: s.String(), Label: s.Label(), Total: total})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// List returns one page of a dataset.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	source := domain.Source(chi.URLParam(r, "source"))

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 250
	}

	total, err := h.dataset.Total(source)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			http.Error(w, `{"error": "unknown source"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to resolve dataset", "source", source, "error", err)
		http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
		return
	}

	rows, err := h.dataset.Rows(source, (page-1)*pageSize, pageSize)
	if err != nil {
		h.logger.Error("failed to list rows", "source", source, "error", err)
		http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListingResponse{Rows: rows, Total: total})
}
