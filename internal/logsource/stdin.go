package logsource

import (
	"context"
	"io"
	"os"
)

// StdinSource reads access-log lines from stdin.
type StdinSource struct {
	*readerSource
}

// NewStdinSource creates a StdinSource that reads from stdin in a background goroutine.
func NewStdinSource(ctx context.Context, conf ...Config) *StdinSource {
	return newStdinSourceWithReader(ctx, os.Stdin, conf...)
}

func newStdinSourceWithReader(ctx context.Context, r io.Reader, conf ...Config) *StdinSource {
	return &StdinSource{newReaderSource(ctx, "stdin", r, resolveConfig(conf), nil)}
}
