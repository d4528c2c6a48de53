package markdown

import "strings"

const fence = "```"

// Parse segments src into blocks, in source order.
//
// Lines are examined once, left to right. Unterminated code fences swallow the rest of
// the input; any other malformed markup ends up in a paragraph.
func Parse(src string) []Block {
	if src == "" {
		return nil
	}
	lines := strings.Split(src, "\n")

	var blocks []Block
	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			i++

		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, Heading2{Content: strings.TrimSpace(line[3:])})
			i++

		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, Heading3{Content: strings.TrimSpace(line[4:])})
			i++

		case trimmed == fence:
			var code []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), fence); i++ {
				code = append(code, lines[i])
			}
			i++ // closing fence, or past the end when there is none
			blocks = append(blocks, Code{Content: strings.Join(code, "\n")})

		case isBullet(trimmed):
			var items []string
			for ; i < len(lines); i++ {
				item := strings.TrimSpace(lines[i])
				if !isBullet(item) {
					break
				}
				items = append(items, strings.TrimSpace(item[2:]))
			}
			blocks = append(blocks, List{Items: items})

		case strings.HasPrefix(line, "> "):
			blocks = append(blocks, Blockquote{Content: strings.TrimSpace(line[2:])})
			i++

		default:
			parts := []string{trimmed}
			for i++; i < len(lines); i++ {
				next := strings.TrimSpace(lines[i])
				if next == "" || startsBlock(next) {
					break
				}
				parts = append(parts, next)
			}
			blocks = append(blocks, Paragraph{Content: strings.Join(parts, " ")})
		}
	}
	return blocks
}

func isBullet(trimmed string) bool {
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ")
}

// startsBlock reports whether a trimmed line ends a running paragraph.
func startsBlock(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, fence) ||
		strings.HasPrefix(trimmed, ">") ||
		isBullet(trimmed)
}
