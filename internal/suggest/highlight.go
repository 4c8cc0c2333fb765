package suggest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abelbrown/harbor/internal/model"
)

// Highlight markers, matching the server's pre-highlighted titles.
const (
	MarkOpen  = "<mark>"
	MarkClose = "</mark>"
)

// Segment is a run of title text, highlighted or not.
type Segment struct {
	Text  string
	Match bool
}

// Highlight splits title around every case-insensitive occurrence of
// query. Matches do not overlap; scanning resumes after each match.
func Highlight(title, query string) []Segment {
	query = strings.TrimSpace(query)
	if query == "" || title == "" {
		return []Segment{{Text: title}}
	}

	var segs []Segment
	plain := 0
	for i := 0; i < len(title); {
		if n, ok := foldPrefix(title[i:], query); ok {
			if plain < i {
				segs = append(segs, Segment{Text: title[plain:i]})
			}
			segs = append(segs, Segment{Text: title[i : i+n], Match: true})
			i += n
			plain = i
			continue
		}
		_, size := utf8.DecodeRuneInString(title[i:])
		i += size
	}
	if plain < len(title) {
		segs = append(segs, Segment{Text: title[plain:]})
	}
	return segs
}

// foldPrefix reports whether s starts with q under simple case folding,
// and how many bytes of s the match spans.
func foldPrefix(s, q string) (int, bool) {
	n := 0
	for q != "" {
		if s == "" {
			return 0, false
		}
		sr, ss := utf8.DecodeRuneInString(s)
		qr, qs := utf8.DecodeRuneInString(q)
		if sr != qr && unicode.ToLower(sr) != unicode.ToLower(qr) {
			return 0, false
		}
		s, q = s[ss:], q[qs:]
		n += ss
	}
	return n, true
}

// Mark renders segments with highlight markers.
func Mark(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Match {
			b.WriteString(MarkOpen)
			b.WriteString(s.Text)
			b.WriteString(MarkClose)
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// ParseMarked splits a pre-highlighted title into segments. Unbalanced
// markers leave the remaining text plain.
func ParseMarked(marked string) []Segment {
	var segs []Segment
	for marked != "" {
		open := strings.Index(marked, MarkOpen)
		if open < 0 {
			break
		}
		rest := marked[open+len(MarkOpen):]
		end := strings.Index(rest, MarkClose)
		if end < 0 {
			break
		}
		if open > 0 {
			segs = append(segs, Segment{Text: marked[:open]})
		}
		if end > 0 {
			segs = append(segs, Segment{Text: rest[:end], Match: true})
		}
		marked = rest[end+len(MarkClose):]
	}
	if marked != "" {
		segs = append(segs, Segment{Text: marked})
	}
	return segs
}

// ItemSegments returns the display segments for a suggestion, using the
// server's highlighted title when it sent one.
func ItemSegments(it model.SuggestionItem, query string) []Segment {
	if it.HighlightedTitle != "" {
		return ParseMarked(it.HighlightedTitle)
	}
	return Highlight(it.Title, query)
}
