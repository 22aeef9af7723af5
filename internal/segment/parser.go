package segment

import (
	"fmt"
	"strings"
)

// TimeRange is a single parsed segment descriptor. End is nil for the final
// segment of a block, meaning "until the end of the source video".
type TimeRange struct {
	Start float64  `json:"start_seconds"`
	End   *float64 `json:"end_seconds,omitempty"`
	Label string   `json:"label"`
}

// Duration returns the range length in seconds and whether it is bounded.
func (r TimeRange) Duration() (float64, bool) {
	if r.End == nil {
		return 0, false
	}
	return *r.End - r.Start, true
}

// ParseError reports a malformed line in a timestamp block. Line is 1-indexed
// against the block after blank lines have been dropped.
type ParseError struct {
	Line    int
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d (%q): %v", e.Line, e.Content, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseBlock parses a newline-delimited block of "MM:SS-title" lines into an
// ordered sequence of time ranges. Each segment's end is inferred from the
// start of the following line; the last segment's end is left open. The parse
// is all-or-nothing: any malformed line fails the whole block so a caller
// never sees a partial result.
func ParseBlock(text string) ([]TimeRange, error) {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("timestamp block is empty")
	}

	starts := make([]int, len(lines))
	titles := make([]string, len(lines))
	for i, line := range lines {
		clock, title, found := strings.Cut(line, "-")
		if !found {
			return nil, &ParseError{Line: i + 1, Content: line, Err: fmt.Errorf("missing '-' delimiter")}
		}
		start, err := ToSeconds(strings.TrimSpace(clock))
		if err != nil {
			return nil, &ParseError{Line: i + 1, Content: line, Err: err}
		}
		starts[i] = start
		titles[i] = strings.TrimSpace(title)
	}

	ranges := make([]TimeRange, len(lines))
	for i := range lines {
		ranges[i] = TimeRange{Start: float64(starts[i]), Label: titles[i]}
		if i < len(lines)-1 {
			end := float64(starts[i+1])
			ranges[i].End = &end
		}
	}
	return ranges, nil
}
