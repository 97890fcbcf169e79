package logsource

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/tinytelemetry/httpmon/internal/model"
)

// readerSource streams non-empty lines from an io.Reader onto a channel.
type readerSource struct {
	name     string
	ch       chan model.IngestEnvelope
	cancel   context.CancelFunc
	stopOnce sync.Once
	onStop   func()
	skipped  atomic.Uint64
}

func newReaderSource(ctx context.Context, name string, r io.Reader, conf Config, onStop func()) *readerSource {
	ctx, cancel := context.WithCancel(ctx)
	s := &readerSource{
		name:   name,
		ch:     make(chan model.IngestEnvelope, conf.BufferSize),
		cancel: cancel,
		onStop: onStop,
	}
	go s.read(ctx, r, conf.MaxLineSize)
	return s
}

func (s *readerSource) read(ctx context.Context, r io.Reader, maxLineSize int) {
	defer close(s.ch)

	// Use a single goroutine for the blocking reads with a done channel to
	// detect context cancellation without spawning a goroutine per line.
	results := make(chan string)
	go func() {
		defer close(results)
		s.readLines(ctx, bufio.NewReaderSize(r, min(maxLineSize, 64*1024)), maxLineSize, results)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-results:
			if !ok {
				return
			}
			select {
			case s.ch <- model.IngestEnvelope{Source: s.name, Line: line}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// readLines sends each non-empty line to results. A line longer than
// maxLineSize is discarded through its newline and reading continues.
func (s *readerSource) readLines(ctx context.Context, br *bufio.Reader, maxLineSize int, results chan<- string) {
	var (
		line      []byte
		oversized bool
		lineNo    int
	)
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("logsource: %s read error: %v", s.name, err)
			}
			return
		}
		if !oversized {
			if len(line)+len(frag) > maxLineSize {
				oversized = true
				line = line[:0]
			} else {
				line = append(line, frag...)
			}
		}
		if isPrefix {
			continue
		}

		lineNo++
		if oversized {
			oversized = false
			s.skipped.Add(1)
			log.Printf("logsource: %s line %d exceeded max size (%d bytes), skipped", s.name, lineNo, maxLineSize)
			continue
		}
		if len(line) == 0 {
			continue
		}
		text := string(line)
		line = line[:0]
		select {
		case results <- text:
		case <-ctx.Done():
			return
		}
	}
}

// Skipped reports how many lines were dropped for exceeding the max line size.
func (s *readerSource) Skipped() uint64 { return s.skipped.Load() }

func (s *readerSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *readerSource) Name() string                       { return s.name }

func (s *readerSource) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.onStop != nil {
			s.onStop()
		}
	})
}
