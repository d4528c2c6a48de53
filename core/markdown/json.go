package markdown

import "encoding/json"

type (
	spanJSON struct {
		Type string `json:"type"`
		Text string `json:"text"`
		Href string `json:"href,omitempty"`
	}

	textBlockJSON struct {
		Type    string `json:"type"`
		Content string `json:"content"`
		Spans   []Span `json:"spans,omitempty"`
	}

	listItemJSON struct {
		Text  string `json:"text"`
		Spans []Span `json:"spans"`
	}

	listBlockJSON struct {
		Type  string         `json:"type"`
		Items []listItemJSON `json:"items"`
	}
)

func (s Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(spanJSON{Type: KindText, Text: s.Text})
}

func (s Bold) MarshalJSON() ([]byte, error) {
	return json.Marshal(spanJSON{Type: KindBold, Text: s.Text})
}

func (s Italic) MarshalJSON() ([]byte, error) {
	return json.Marshal(spanJSON{Type: KindItalic, Text: s.Text})
}

func (s InlineCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(spanJSON{Type: KindInlineCode, Text: s.Text})
}

func (s Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(spanJSON{Type: KindLink, Text: s.Text, Href: s.Href})
}

// marshalText encodes a text block. Inline blocks carry their parsed spans so clients do not re-parse.
func marshalText(kind, content string, inline bool) ([]byte, error) {
	b := textBlockJSON{Type: kind, Content: content}
	if inline {
		b.Spans = Spans(content)
	}
	return json.Marshal(b)
}

func (b Paragraph) MarshalJSON() ([]byte, error)  { return marshalText(KindParagraph, b.Content, true) }
func (b Heading2) MarshalJSON() ([]byte, error)   { return marshalText(KindHeading2, b.Content, true) }
func (b Heading3) MarshalJSON() ([]byte, error)   { return marshalText(KindHeading3, b.Content, true) }
func (b Blockquote) MarshalJSON() ([]byte, error) { return marshalText(KindBlockquote, b.Content, true) }
func (b Code) MarshalJSON() ([]byte, error)       { return marshalText(KindCode, b.Content, false) }

func (b List) MarshalJSON() ([]byte, error) {
	items := make([]listItemJSON, 0, len(b.Items))
	for _, item := range b.Items {
		spans := Spans(item)
		if spans == nil {
			spans = []Span{}
		}
		items = append(items, listItemJSON{Text: item, Spans: spans})
	}
	return json.Marshal(listBlockJSON{Type: KindList, Items: items})
}
