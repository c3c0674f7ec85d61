package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// EventReader incrementally decodes newline-delimited stream events from an
// io.Reader. Bytes are accumulated in a buffer and split on newline
// boundaries; the trailing partial line is retained across reads so events
// may arrive fragmented across any number of chunks. Blank lines are skipped.
//
// A line that fails to parse as JSON is fatal for the whole stream.
type EventReader struct {
	r     io.Reader
	buf   []byte
	chunk []byte
	queue []domain.StreamEvent
	eof   bool
	err   error
}

// NewEventReader creates a reader over r.
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{
		r:     r,
		chunk: make([]byte, 4096),
	}
}

// Next returns the next event on the stream. It returns io.EOF once the
// underlying reader is exhausted and all buffered events have been consumed.
func (er *EventReader) Next() (domain.StreamEvent, error) {
	for {
		if er.err != nil {
			return domain.StreamEvent{}, er.err
		}
		if len(er.queue) > 0 {
			ev := er.queue[0]
			er.queue = er.queue[1:]
			return ev, nil
		}
		if er.eof {
			er.err = io.EOF
			return domain.StreamEvent{}, er.err
		}

		n, err := er.r.Read(er.chunk)
		if n > 0 {
			er.buf = append(er.buf, er.chunk[:n]...)
			if perr := er.split(); perr != nil {
				er.err = perr
				return domain.StreamEvent{}, er.err
			}
		}
		if err != nil {
			if err != io.EOF {
				er.err = err
				return domain.StreamEvent{}, er.err
			}
			// End of stream: whatever is left in the buffer is the
			// final, unterminated line.
			er.eof = true
			if perr := er.flush(); perr != nil {
				er.err = perr
				return domain.StreamEvent{}, er.err
			}
		}
	}
}

// split consumes complete lines from the buffer, keeping the partial tail.
func (er *EventReader) split() error {
	for {
		i := bytes.IndexByte(er.buf, '\n')
		if i < 0 {
			return nil
		}
		line := string(er.buf[:i])
		er.buf = er.buf[i+1:]
		if err := er.parseLine(line); err != nil {
			return err
		}
	}
}

// flush parses the final partial line once the reader is exhausted.
func (er *EventReader) flush() error {
	line := string(er.buf)
	er.buf = nil
	return er.parseLine(line)
}

func (er *EventReader) parseLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var ev domain.StreamEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return fmt.Errorf("parse stream event: %w", err)
	}
	er.queue = append(er.queue, ev)
	return nil
}
