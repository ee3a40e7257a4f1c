package mrz

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Candidate is the concatenation of the two lines selected as MRZ.
type Candidate string

// Locate selects the last two lines that are exactly LineLength characters
// long after trimming and concatenates them. Earlier matches are treated as
// noise from the rest of the page. Longer lines are never truncated.
func Locate(lines []string) (Candidate, bool) {
	var matches []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if utf8.RuneCountInString(trimmed) == LineLength {
			matches = append(matches, trimmed)
		}
	}

	if len(matches) < 2 {
		slog.Debug("No MRZ candidate found", "line_count", len(lines), "matching_lines", len(matches))
		return "", false
	}

	slog.Debug("MRZ candidate located", "line_count", len(lines), "matching_lines", len(matches))
	return Candidate(matches[len(matches)-2] + matches[len(matches)-1]), true
}

// SplitLines turns a recognized text block into trimmed lines, order preserved.
// The text is NFKC normalised first so full-width characters emitted by some
// OCR engines ("＜", "Ｐ") count as their ASCII forms.
func SplitLines(text string) []string {
	normalized := norm.NFKC.String(text)
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}
