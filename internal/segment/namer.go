package segment

import (
	"fmt"
	"strings"
	"unicode"
)

const maxCleanTitleLen = 40

// CleanTitle reduces a title or query string to a filesystem-safe slug:
// only alphanumerics, spaces, '-' and '_' survive, trailing whitespace is
// trimmed, spaces become underscores, the result is lowercased and capped
// at 40 characters.
func CleanTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	clean := strings.TrimRight(b.String(), " ")
	clean = strings.ToLower(strings.ReplaceAll(clean, " ", "_"))

	runes := []rune(clean)
	if len(runes) > maxCleanTitleLen {
		runes = runes[:maxCleanTitleLen]
	}
	return string(runes)
}

// BuildFilename produces the deterministic output filename for a snippet of
// the given kind covering the given range. Clock colons are replaced with
// underscores for filesystem safety. An open-ended range uses the "end"
// sentinel and carries no duration.
func BuildFilename(kind, title string, r TimeRange) string {
	start := strings.ReplaceAll(ToClock(int(r.Start)), ":", "_")
	if r.End == nil {
		return fmt.Sprintf("%s_%s_%s-end.mp4", kind, CleanTitle(title), start)
	}
	end := strings.ReplaceAll(ToClock(int(*r.End)), ":", "_")
	return fmt.Sprintf("%s_%s_%s-%s_%.1fs.mp4", kind, CleanTitle(title), start, end, *r.End-r.Start)
}
