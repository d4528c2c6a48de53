package markdown

// Span kinds, as used in the JSON "type" field.
const (
	KindText       = "text"
	KindBold       = "bold"
	KindItalic     = "italic"
	KindInlineCode = "code"
	KindLink       = "link"
)

// Span is one of Text, Bold, Italic, InlineCode or Link.
type Span interface {
	Kind() string
	// Visible returns the text a reader sees, markup stripped.
	Visible() string
	Accept(v SpanVisitor)
	span()
}

// SpanVisitor handles every Span variant.
type SpanVisitor interface {
	VisitText(Text)
	VisitBold(Bold)
	VisitItalic(Italic)
	VisitInlineCode(InlineCode)
	VisitLink(Link)
}

type (
	Text       struct{ Text string }
	Bold       struct{ Text string }
	Italic     struct{ Text string }
	InlineCode struct{ Text string }
	Link       struct{ Text, Href string }
)

func (Text) span()       {}
func (Bold) span()       {}
func (Italic) span()     {}
func (InlineCode) span() {}
func (Link) span()       {}

func (Text) Kind() string       { return KindText }
func (Bold) Kind() string       { return KindBold }
func (Italic) Kind() string     { return KindItalic }
func (InlineCode) Kind() string { return KindInlineCode }
func (Link) Kind() string       { return KindLink }

func (s Text) Visible() string       { return s.Text }
func (s Bold) Visible() string       { return s.Text }
func (s Italic) Visible() string     { return s.Text }
func (s InlineCode) Visible() string { return s.Text }
func (s Link) Visible() string       { return s.Text }

func (s Text) Accept(v SpanVisitor)       { v.VisitText(s) }
func (s Bold) Accept(v SpanVisitor)       { v.VisitBold(s) }
func (s Italic) Accept(v SpanVisitor)     { v.VisitItalic(s) }
func (s InlineCode) Accept(v SpanVisitor) { v.VisitInlineCode(s) }
func (s Link) Accept(v SpanVisitor)       { v.VisitLink(s) }
