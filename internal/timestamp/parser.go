package timestamp

import (
	"strconv"
	"strings"
	"time"
)

// CommonLogLayout is the timestamp layout of the Common Log Format.
const CommonLogLayout = "02/Jan/2006:15:04:05 -0700"

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// Second-resolution values stay below it until the year 5138.
const epochMillisThreshold = 100_000_000_000

// Parser converts the date column of an access log into epoch seconds.
type Parser struct {
	layouts []string
}

// NewParser creates a parser accepting epoch seconds, epoch milliseconds,
// CLF and RFC3339 timestamps.
func NewParser() *Parser {
	return &Parser{
		layouts: []string{
			CommonLogLayout,
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
		},
	}
}

// Parse returns value as epoch seconds. Sub-second precision is truncated.
func (p *Parser) Parse(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
	if value == "" {
		return 0, false
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n < 0 {
			return 0, false
		}
		if n >= epochMillisThreshold {
			return n / 1000, true
		}
		return n, true
	}

	for _, layout := range p.layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.Unix(), true
		}
	}
	return 0, false
}
