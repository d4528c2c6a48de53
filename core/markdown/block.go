// Package markdown renders the small markdown subset used by lesson text.
//
// Parse splits source text into Blocks; Spans splits a block's text into inline Spans.
// Both are pure and never fail: malformed markup degrades to plain text.
package markdown

// Block kinds, as used in the JSON "type" field.
const (
	KindParagraph  = "paragraph"
	KindHeading2   = "heading2"
	KindHeading3   = "heading3"
	KindList       = "list"
	KindCode       = "code"
	KindBlockquote = "blockquote"
)

// Block is one of Paragraph, Heading2, Heading3, List, Code or Blockquote.
// The set is closed: only this package can add variants.
type Block interface {
	Kind() string
	Accept(v BlockVisitor)
	block()
}

// BlockVisitor handles every Block variant.
type BlockVisitor interface {
	VisitParagraph(Paragraph)
	VisitHeading2(Heading2)
	VisitHeading3(Heading3)
	VisitList(List)
	VisitCode(Code)
	VisitBlockquote(Blockquote)
}

type (
	Paragraph  struct{ Content string }
	Heading2   struct{ Content string }
	Heading3   struct{ Content string }
	List       struct{ Items []string }
	Code       struct{ Content string }
	Blockquote struct{ Content string }
)

func (Paragraph) block()  {}
func (Heading2) block()   {}
func (Heading3) block()   {}
func (List) block()       {}
func (Code) block()       {}
func (Blockquote) block() {}

func (Paragraph) Kind() string  { return KindParagraph }
func (Heading2) Kind() string   { return KindHeading2 }
func (Heading3) Kind() string   { return KindHeading3 }
func (List) Kind() string       { return KindList }
func (Code) Kind() string       { return KindCode }
func (Blockquote) Kind() string { return KindBlockquote }

func (b Paragraph) Accept(v BlockVisitor)  { v.VisitParagraph(b) }
func (b Heading2) Accept(v BlockVisitor)   { v.VisitHeading2(b) }
func (b Heading3) Accept(v BlockVisitor)   { v.VisitHeading3(b) }
func (b List) Accept(v BlockVisitor)       { v.VisitList(b) }
func (b Code) Accept(v BlockVisitor)       { v.VisitCode(b) }
func (b Blockquote) Accept(v BlockVisitor) { v.VisitBlockquote(b) }
