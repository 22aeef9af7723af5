// Package segment implements the timestamp parsing pipeline: converting
// between MM:SS clocks and seconds, parsing chapter-style timestamp blocks
// into time ranges, and building filesystem-safe snippet filenames.
package segment

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a malformed clock string. It is always recoverable by
// the caller re-prompting for corrected input.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid clock %q: %s", e.Input, e.Reason)
}

// ToClock formats a non-negative number of seconds as a zero-padded MM:SS
// clock. Minutes are not rolled over into hours, so 3600 renders as "60:00".
func ToClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ToSeconds parses an MM:SS clock back into seconds. The clock must have
// exactly two numeric components separated by a colon.
func ToSeconds(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, &FormatError{Input: clock, Reason: "expected exactly two components separated by ':'"}
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, &FormatError{Input: clock, Reason: "minutes component is not numeric"}
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, &FormatError{Input: clock, Reason: "seconds component is not numeric"}
	}
	if minutes < 0 || seconds < 0 {
		return 0, &FormatError{Input: clock, Reason: "components must be non-negative"}
	}

	return minutes*60 + seconds, nil
}
