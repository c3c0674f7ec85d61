package export

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// chunkReader yields its fragments one Read at a time, regardless of the
// buffer size offered, to simulate arbitrary network chunking.
type chunkReader struct {
	chunks []string
	i      int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.i >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.i])
	r.i++
	return n, nil
}

func readAll(t *testing.T, r *EventReader) ([]domain.StreamEvent, error) {
	t.Helper()
	var events []domain.StreamEvent
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

func TestEventReader_WholeLines(t *testing.T) {
	input := `{"type":"progress","phase":"shipments","fetched":10,"total":100}
{"type":"progress","phase":"details","fetched":100,"total":100}
{"type":"file","data":"YWI=","contentType":"text/csv","filename":"out.csv"}
`
	events, err := readAll(t, NewEventReader(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type != domain.StreamEventProgress || events[0].Fetched != 10 {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[2].Type != domain.StreamEventFile || events[2].Filename != "out.csv" {
		t.Errorf("unexpected last event: %+v", events[2])
	}
}

func TestEventReader_PartialLinesAcrossChunks(t *testing.T) {
	r := &chunkReader{chunks: []string{
		`{"type":"prog`,
		`ress","phase":"shipments",`,
		`"fetched":55,"total":100}` + "\n" + `{"type":"fi`,
		`le","data":"YWI=","filename":"out.csv"}`,
	}}

	events, err := readAll(t, NewEventReader(r))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Fetched != 55 {
		t.Errorf("expected fetched=55, got %d", events[0].Fetched)
	}
	if events[1].Type != domain.StreamEventFile {
		t.Errorf("expected file event, got %q", events[1].Type)
	}
}

func TestEventReader_SkipsBlankLines(t *testing.T) {
	input := "\n\n" + `{"type":"progress","fetched":1,"total":2}` + "\n\n  \n" + `{"type":"error","message":"boom"}` + "\n\n"

	events, err := readAll(t, NewEventReader(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Message != "boom" {
		t.Errorf("unexpected error event: %+v", events[1])
	}
}

func TestEventReader_MalformedLineIsFatal(t *testing.T) {
	input := `{"type":"progress","fetched":1,"total":2}` + "\nnot-json\n" + `{"type":"file"}` + "\n"

	r := NewEventReader(strings.NewReader(input))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("first event should parse, got %v", err)
	}
	if ev.Type != domain.StreamEventProgress {
		t.Errorf("unexpected first event: %+v", ev)
	}

	if _, err := r.Next(); err == nil {
		t.Fatal("expected parse error for malformed line")
	}

	// The reader stays failed
	if _, err := r.Next(); err == nil {
		t.Fatal("expected reader to remain in error state")
	}
}

func TestEventReader_FinalLineWithoutNewline(t *testing.T) {
	input := `{"type":"error","message":"export failed"}`

	events, err := readAll(t, NewEventReader(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Message != "export failed" {
		t.Fatalf("expected single error event, got %+v", events)
	}
}

func TestEventReader_EmptyStream(t *testing.T) {
	events, err := readAll(t, NewEventReader(strings.NewReader("")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}
