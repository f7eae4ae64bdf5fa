// Package markdown converts markdown documents to plain text for translation
// and to HTML for reports.
package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

func parse(md []byte) ast.Node {
	return parser.NewWithExtensions(parser.CommonExtensions | parser.Attributes).Parse(md)
}

// ToHTML renders md for pages that embed model output. Raw HTML in the
// source is dropped and links open in a new tab.
func ToHTML(md []byte) string {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank | mdhtml.SkipHTML,
	})
	return string(markdown.Render(parse(md), renderer))
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ToPlainText flattens md into the text a translator should see. Blocks are
// separated by blank lines, list items start with "- " on their own line
// and table cells are tab separated. Code is kept verbatim; raw HTML is
// dropped.
func ToPlainText(md []byte) string {
	var b strings.Builder
	ast.WalkFunc(parse(md), func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Text:
			b.WriteString(html.UnescapeString(string(n.Literal)))
		case *ast.Code:
			b.Write(n.Literal)
		case *ast.CodeBlock:
			b.Write(n.Literal)
			b.WriteString("\n\n")
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteByte('\n')
		case *ast.HTMLSpan, *ast.HTMLBlock:
		case *ast.ListItem:
			if entering {
				newLine(&b)
				b.WriteString("- ")
			}
		case *ast.TableCell:
			if !entering {
				b.WriteByte('\t')
			}
		case *ast.TableRow:
			if !entering {
				newLine(&b)
			}
		case *ast.Paragraph:
			if entering {
				break
			}
			if _, inItem := n.GetParent().(*ast.ListItem); inItem {
				newLine(&b)
			} else {
				b.WriteString("\n\n")
			}
		case *ast.Heading, *ast.BlockQuote, *ast.List, *ast.Table:
			if !entering {
				b.WriteString("\n\n")
			}
		}
		return ast.GoToNext
	})

	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	text := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}

func newLine(b *strings.Builder) {
	if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}
