package logsource

import "github.com/tinytelemetry/httpmon/internal/model"

// LogSource is the interface shared by every access-log input (file, stdin, tcp).
// Lines is closed when the input is exhausted or the source is stopped.
type LogSource interface {
	Lines() <-chan model.IngestEnvelope // read-only channel of raw lines
	Stop()                              // graceful shutdown
	Name() string                       // "file", "stdin", "tcp"
}

const (
	// DefaultBuffer is the default channel buffer size for source lines.
	DefaultBuffer = 50_000

	// DefaultMaxLineSize is the default maximum size (in bytes) of a single line.
	DefaultMaxLineSize = 1024 * 1024 // 1MB
)

// Config holds tunable parameters shared by the reader-backed sources.
type Config struct {
	BufferSize  int
	MaxLineSize int
}

func resolveConfig(conf []Config) Config {
	c := Config{BufferSize: DefaultBuffer, MaxLineSize: DefaultMaxLineSize}
	if len(conf) > 0 {
		if conf[0].BufferSize > 0 {
			c.BufferSize = conf[0].BufferSize
		}
		if conf[0].MaxLineSize > 0 {
			c.MaxLineSize = conf[0].MaxLineSize
		}
	}
	return c
}
