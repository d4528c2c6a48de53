package markdown

import (
	"html"
	"html/template"
	"net/url"
	"strings"
)

var safeSchemes = map[string]bool{"": true, "http": true, "https": true, "mailto": true}

// HTML renders blocks as an HTML fragment. All text is escaped; links with a scheme
// other than http, https or mailto are rendered as their text only.
func HTML(blocks []Block) template.HTML {
	r := &htmlRenderer{}
	for _, b := range blocks {
		b.Accept(r)
		r.out.WriteByte('\n')
	}
	return template.HTML(r.out.String())
}

type htmlRenderer struct {
	out strings.Builder
}

var (
	_ BlockVisitor = (*htmlRenderer)(nil)
	_ SpanVisitor  = (*htmlRenderer)(nil)
)

func (r *htmlRenderer) inline(tag, text string) {
	r.out.WriteString("<" + tag + ">")
	for _, s := range Spans(text) {
		s.Accept(r)
	}
	r.out.WriteString("</" + tag + ">")
}

func (r *htmlRenderer) VisitParagraph(b Paragraph)   { r.inline("p", b.Content) }
func (r *htmlRenderer) VisitHeading2(b Heading2)     { r.inline("h2", b.Content) }
func (r *htmlRenderer) VisitHeading3(b Heading3)     { r.inline("h3", b.Content) }
func (r *htmlRenderer) VisitBlockquote(b Blockquote) { r.inline("blockquote", b.Content) }

func (r *htmlRenderer) VisitList(b List) {
	r.out.WriteString("<ul>")
	for _, item := range b.Items {
		r.inline("li", item)
	}
	r.out.WriteString("</ul>")
}

func (r *htmlRenderer) VisitCode(b Code) {
	r.out.WriteString("<pre><code>")
	r.out.WriteString(html.EscapeString(b.Content))
	r.out.WriteString("</code></pre>")
}

func (r *htmlRenderer) VisitText(s Text) { r.out.WriteString(html.EscapeString(s.Text)) }

func (r *htmlRenderer) VisitBold(s Bold) {
	r.out.WriteString("<strong>" + html.EscapeString(s.Text) + "</strong>")
}

func (r *htmlRenderer) VisitItalic(s Italic) {
	r.out.WriteString("<em>" + html.EscapeString(s.Text) + "</em>")
}

func (r *htmlRenderer) VisitInlineCode(s InlineCode) {
	r.out.WriteString("<code>" + html.EscapeString(s.Text) + "</code>")
}

func (r *htmlRenderer) VisitLink(s Link) {
	if !isSafeHref(s.Href) {
		r.out.WriteString(html.EscapeString(s.Text))
		return
	}
	r.out.WriteString(`<a href="` + html.EscapeString(s.Href) + `" rel="noopener">`)
	r.out.WriteString(html.EscapeString(s.Text))
	r.out.WriteString("</a>")
}

func isSafeHref(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	return safeSchemes[strings.ToLower(u.Scheme)]
}

// PlainText returns the visible text of blocks: one block per paragraph, one list item per line.
func PlainText(blocks []Block) string {
	p := &plainRenderer{}
	for _, b := range blocks {
		b.Accept(p)
	}
	return strings.Join(p.parts, "\n\n")
}

type plainRenderer struct {
	parts []string
}

func (p *plainRenderer) add(text string) { p.parts = append(p.parts, Visible(Spans(text))) }

func (p *plainRenderer) VisitParagraph(b Paragraph)   { p.add(b.Content) }
func (p *plainRenderer) VisitHeading2(b Heading2)     { p.add(b.Content) }
func (p *plainRenderer) VisitHeading3(b Heading3)     { p.add(b.Content) }
func (p *plainRenderer) VisitBlockquote(b Blockquote) { p.add(b.Content) }
func (p *plainRenderer) VisitCode(b Code)             { p.parts = append(p.parts, b.Content) }

func (p *plainRenderer) VisitList(b List) {
	items := make([]string, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, "- "+Visible(Spans(item)))
	}
	p.parts = append(p.parts, strings.Join(items, "\n"))
}
