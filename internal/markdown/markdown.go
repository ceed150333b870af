// Package markdown converts model answers into typed display blocks. It is a
// best-effort single-pass converter for the subset the assistant actually
// emits (fenced code, flat lists, headings, bold/italic/links), not a
// compliant markdown parser.
package markdown

import (
	"html"
	"regexp"
	"strings"
)

type BlockType string

const (
	BlockCode      = BlockType("code")
	BlockList      = BlockType("list")
	BlockHeading   = BlockType("heading")
	BlockParagraph = BlockType("paragraph")
)

// Block is one display block. The fields used depend on Type: code blocks
// carry Language and Code, lists carry Ordered and Items, headings carry
// Level and HTML, paragraphs carry HTML. Items and HTML hold escaped text
// with inline formatting already applied.
type Block struct {
	Type     BlockType `json:"type"`
	Language string    `json:"language,omitempty"`
	Code     string    `json:"code,omitempty"`
	Ordered  bool      `json:"ordered,omitempty"`
	Items    []string  `json:"items,omitempty"`
	Level    int       `json:"level,omitempty"`
	HTML     string    `json:"html,omitempty"`
}

var (
	listItemRe = regexp.MustCompile(`^([*\-] |\d+\. )`)
	orderedRe  = regexp.MustCompile(`^\d+\. `)
	headingRe  = regexp.MustCompile(`^(#{1,6}) `)
	linkRe     = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	boldRe     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.*?)\*`)
)

// Render splits text into an ordered sequence of display blocks.
func Render(text string) []Block {
	lines := strings.Split(text, "\n")
	var blocks []Block
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "```"):
			language := strings.ToLower(strings.TrimSpace(line[3:]))
			var code []string
			j := i + 1
			for ; j < len(lines); j++ {
				if strings.HasPrefix(lines[j], "```") {
					break
				}
				code = append(code, lines[j])
			}
			blocks = append(blocks, Block{
				Type:     BlockCode,
				Language: language,
				Code:     strings.Join(code, "\n"),
			})
			i = j
		case listItemRe.MatchString(line):
			ordered := orderedRe.MatchString(line)
			var items []string
			for ; i < len(lines) && listItemRe.MatchString(lines[i]); i++ {
				item := listItemRe.ReplaceAllString(lines[i], "")
				items = append(items, formatInline(item))
			}
			i--
			blocks = append(blocks, Block{Type: BlockList, Ordered: ordered, Items: items})
		case strings.TrimSpace(line) == "":
			// blank lines separate blocks, they render as nothing
		default:
			if m := headingRe.FindStringSubmatch(line); m != nil {
				level := len(m[1])
				blocks = append(blocks, Block{
					Type:  BlockHeading,
					Level: level,
					HTML:  formatInline(line[level+1:]),
				})
				continue
			}
			blocks = append(blocks, Block{Type: BlockParagraph, HTML: formatInline(line)})
		}
	}
	return blocks
}

// formatInline escapes markup-significant characters, then applies links,
// bold and italic. Order matters: bold must run before italic so a lone
// asterisk pair is not consumed by the bold pattern's leftovers.
func formatInline(s string) string {
	s = html.EscapeString(s)
	s = linkRe.ReplaceAllString(s, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	return s
}
