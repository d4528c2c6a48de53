package markdown

import "regexp"

type inlinePattern struct {
	kind string
	re   *regexp.Regexp
}

// inlinePatterns are listed by priority: on equal start offsets the earlier one wins.
var inlinePatterns = [...]inlinePattern{
	{KindLink, regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)},
	{KindBold, regexp.MustCompile(`\*\*(.+?)\*\*`)},
	{KindItalic, regexp.MustCompile(`\*([^*]+)\*`)},
	{KindInlineCode, regexp.MustCompile("`([^`]+)`")},
}

// Spans splits text into inline spans, left to right.
//
// Constructs do not nest: the inner text of a match is never scanned again.
// Text without any construct comes back as a single Text span; empty text as no spans.
func Spans(text string) []Span {
	if text == "" {
		return nil
	}

	var (
		spans []Span
		pos   int
		// next match of each pattern at or after the last search offset; nil once exhausted
		next     [len(inlinePatterns)][]int
		searched [len(inlinePatterns)]bool
	)
	for pos < len(text) {
		best := -1
		for i, p := range inlinePatterns {
			if !searched[i] || (next[i] != nil && next[i][0] < pos) {
				searched[i] = true
				next[i] = p.re.FindStringSubmatchIndex(text[pos:])
				for j := range next[i] {
					if next[i][j] >= 0 {
						next[i][j] += pos
					}
				}
			}
			if next[i] != nil && (best < 0 || next[i][0] < next[best][0]) {
				best = i
			}
		}
		if best < 0 {
			break
		}

		loc := next[best]
		if loc[0] > pos {
			spans = append(spans, Text{Text: text[pos:loc[0]]})
		}
		spans = append(spans, newSpan(inlinePatterns[best].kind, text, loc))
		pos = loc[1]
	}
	if pos < len(text) {
		spans = append(spans, Text{Text: text[pos:]})
	}
	return spans
}

func newSpan(kind, text string, loc []int) Span {
	inner := text[loc[2]:loc[3]]
	switch kind {
	case KindLink:
		return Link{Text: inner, Href: text[loc[4]:loc[5]]}
	case KindBold:
		return Bold{Text: inner}
	case KindItalic:
		return Italic{Text: inner}
	default:
		return InlineCode{Text: inner}
	}
}

// Visible concatenates the visible text of spans.
func Visible(spans []Span) string {
	var n int
	for _, s := range spans {
		n += len(s.Visible())
	}
	buf := make([]byte, 0, n)
	for _, s := range spans {
		buf = append(buf, s.Visible()...)
	}
	return string(buf)
}
