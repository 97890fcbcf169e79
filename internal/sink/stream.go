package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/httpmon/internal/model"
)

// Stream formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type encoder interface {
	Encode(v any) error
}

// Stream writes each event as a tagged {type, payload} document, one JSON
// object per line or one YAML document per event.
type Stream struct {
	mu     sync.Mutex
	format string
	enc    encoder
	closer io.Closer
}

// NewStream creates a stream sink in the given format.
func NewStream(w io.Writer, format string) (*Stream, error) {
	s := &Stream{format: strings.ToLower(format)}
	switch s.format {
	case FormatJSON:
		s.enc = json.NewEncoder(w)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		s.enc = enc
		s.closer = enc
	default:
		return nil, fmt.Errorf("unsupported stream format %q", format)
	}
	return s, nil
}

func (s *Stream) AlertRaised(e model.AlertRaised) {
	s.emit(model.Event{Type: model.EventAlertRaised, Payload: e})
}

func (s *Stream) AlertCleared(e model.AlertCleared) {
	s.emit(model.Event{Type: model.EventAlertCleared, Payload: e})
}

func (s *Stream) MetricsSnapshot(e model.MetricsSnapshot) {
	s.emit(model.Event{Type: model.EventMetricsSnapshot, Payload: e})
}

// Finish writes the run summary as a final "run_summary" document and
// flushes the YAML encoder.
func (s *Stream) Finish(summary RunSummary) {
	s.emit(model.Event{Type: "run_summary", Payload: summary})
	if s.closer != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.closer.Close(); err != nil {
			log.Printf("sink: %s stream close error: %v", s.format, err)
		}
	}
}

func (s *Stream) emit(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(ev); err != nil {
		log.Printf("sink: %s stream write error: %v", s.format, err)
	}
}
