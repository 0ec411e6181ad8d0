// Package match finds occurrences of a literal target string within a line.
package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"greptree/internal/domain"
)

// Matcher locates non-overlapping occurrences of one target string.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	target        string
	lowerTarget   string
	caseSensitive bool
	asciiTarget   bool
}

// NewMatcher creates a matcher for target. With caseSensitive false, runes are
// compared under Unicode simple case folding.
func NewMatcher(target string, caseSensitive bool) *Matcher {
	return &Matcher{
		target:        target,
		lowerTarget:   strings.ToLower(target),
		caseSensitive: caseSensitive,
		asciiTarget:   isASCII(target),
	}
}

// Find returns the occurrences of the target in line, scanning left to right and
// resuming after the end of each occurrence. Spans are byte offsets into line.
// It returns nil when there is no occurrence or the target is empty.
func (m *Matcher) Find(line string) []domain.MatchSpan {
	if m.target == "" || len(line) == 0 {
		return nil
	}

	switch {
	case m.caseSensitive:
		return findExact(line, m.target)
	case m.asciiTarget && isASCII(line):
		// ASCII lowering keeps byte offsets stable
		return findExact(asciiLower(line), m.lowerTarget)
	default:
		return m.findFold(line)
	}
}

// FindMatches is a convenience wrapper for one-off case-sensitive matching
func FindMatches(line, target string) []domain.MatchSpan {
	return NewMatcher(target, true).Find(line)
}

func findExact(hay, needle string) []domain.MatchSpan {
	var spans []domain.MatchSpan
	for pos := 0; pos <= len(hay)-len(needle); {
		i := strings.Index(hay[pos:], needle)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(needle)
		spans = append(spans, domain.MatchSpan{Start: start, End: end})
		pos = end
	}
	return spans
}

func (m *Matcher) findFold(line string) []domain.MatchSpan {
	var spans []domain.MatchSpan
	for pos := 0; pos < len(line); {
		if n, ok := foldPrefix(line[pos:], m.target); ok {
			spans = append(spans, domain.MatchSpan{Start: pos, End: pos + n})
			pos += n
			continue
		}
		_, size := utf8.DecodeRuneInString(line[pos:])
		pos += size
	}
	return spans
}

// foldPrefix reports whether s begins with a case-folded copy of t and
// returns the number of bytes of s consumed by it.
func foldPrefix(s, t string) (int, bool) {
	consumed := 0
	for _, tr := range t {
		if consumed >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[consumed:])
		if !equalFold(sr, tr) {
			return 0, false
		}
		consumed += size
	}
	return consumed, true
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	// walk the fold orbit of a looking for b
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
