package domain

import (
	"errors"
	"testing"
)

func TestPhaseLabel(t *testing.T) {
	tests := []struct {
		tag      string
		expected string
	}{
		{"shipments", PhaseFetching},
		{"details", PhaseFinalizing},
		{"zip", PhaseGenerating},
		{"", PhaseGenerating},
		{"anything-else", PhaseGenerating},
	}

	for _, tt := range tests {
		if got := PhaseLabel(tt.tag); got != tt.expected {
			t.Errorf("PhaseLabel(%q) = %q, want %q", tt.tag, got, tt.expected)
		}
	}
}

func TestStreamEvent_Terminal(t *testing.T) {
	tests := []struct {
		eventType string
		terminal  bool
	}{
		{StreamEventProgress, false},
		{StreamEventFile, true},
		{StreamEventError, true},
		{"unknown", false},
	}

	for _, tt := range tests {
		ev := StreamEvent{Type: tt.eventType}
		if got := ev.Terminal(); got != tt.terminal {
			t.Errorf("Terminal() for type %q = %v, want %v", tt.eventType, got, tt.terminal)
		}
	}
}

func TestExportState_Idle(t *testing.T) {
	idle := ExportState{}
	if !idle.Idle() {
		t.Error("zero state should be idle")
	}

	active := ExportState{Progress: &ExportProgress{Phase: PhaseFetching}, Exporting: true}
	if active.Idle() {
		t.Error("active state should not be idle")
	}
}

func TestServerError(t *testing.T) {
	err := &ServerError{Message: "database unavailable"}
	if got := err.Error(); got != "export failed on server: database unavailable" {
		t.Errorf("unexpected message: %q", got)
	}

	empty := &ServerError{}
	if got := empty.Error(); got != "export failed on server" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestExportError_Unwrap(t *testing.T) {
	err := NewExportError(SourceShipments, "stream", ErrNoResponseBody)

	if !errors.Is(err, ErrNoResponseBody) {
		t.Error("expected errors.Is to find the wrapped error")
	}
	if got := err.Error(); got != "stream [shipments]: export response has no body" {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestSources_Labels(t *testing.T) {
	for _, s := range Sources() {
		if s.Label() == "" {
			t.Errorf("source %q has no label", s)
		}
	}

	if got := SourceOrders.Label(); got != "Unfulfilled Orders" {
		t.Errorf("unexpected label: %q", got)
	}
}
