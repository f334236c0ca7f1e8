package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Parser turns normalized message text into a Node tree. It is safe for
// concurrent use.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Table),
		goldmark.WithParserOptions(
			parser.WithInlineParsers(
				util.Prioritized(NewMentionParser(), 600),
				util.Prioritized(NewHashtagParser(), 600),
				util.Prioritized(NewShortcodeParser(), 600),
			),
			parser.WithASTTransformers(
				util.Prioritized(&emojiTransformer{}, 100),
			),
		),
	)
	return &Parser{md: md}
}

// Parse never fails: anything goldmark accepts becomes a tree, and
// goldmark accepts any input.
func (p *Parser) Parse(normalized string) *Node {
	source := []byte(normalized)
	doc := p.md.Parser().Parse(text.NewReader(source))
	c := converter{source: source}
	return c.convert(doc, Context{})[0]
}

type converter struct {
	source []byte
}

func (c *converter) convert(n ast.Node, ctx Context) []*Node {
	out := &Node{Context: ctx}

	switch v := n.(type) {
	case *ast.Document:
		out.Kind = KindDocument
		// the document root is not part of any context
		out.Children = c.children(n, Context{})
		return []*Node{out}
	case *ast.Paragraph, *ast.TextBlock:
		out.Kind = KindParagraph
	case *ast.Heading:
		out.Kind = KindHeading
		out.Level = v.Level
	case *ast.ThematicBreak:
		out.Kind = KindThematicBreak
		return []*Node{out}
	case *ast.CodeBlock:
		out.Kind = KindCodeBlock
		out.Literal = c.lines(v.Lines())
		return []*Node{out}
	case *ast.FencedCodeBlock:
		out.Kind = KindCodeBlock
		out.Literal = c.lines(v.Lines())
		out.Info = string(v.Language(c.source))
		return []*Node{out}
	case *ast.Blockquote:
		out.Kind = KindBlockQuote
	case *ast.List:
		out.Kind = KindList
		out.Ordered = v.IsOrdered()
		out.Start = v.Start
		out.Tight = v.IsTight
	case *ast.ListItem:
		out.Kind = KindListItem
	case *ast.HTMLBlock:
		out.Kind = KindHTMLBlock
		lit := c.lines(v.Lines())
		if v.HasClosure() {
			lit += strings.TrimRight(string(v.ClosureLine.Value(c.source)), "\n")
		}
		out.Literal = lit
		return []*Node{out}
	case *ast.Text:
		out.Kind = KindText
		out.Literal = c.textValue(v)
		nodes := []*Node{out}
		switch {
		case v.HardLineBreak():
			nodes = append(nodes, &Node{Kind: KindHardBreak, Context: ctx})
		case v.SoftLineBreak():
			nodes = append(nodes, &Node{Kind: KindSoftBreak, Context: ctx})
		}
		return nodes
	case *ast.String:
		out.Kind = KindText
		out.Literal = string(v.Value)
		return []*Node{out}
	case *ast.CodeSpan:
		out.Kind = KindCode
		out.Literal = c.plain(v)
		return []*Node{out}
	case *ast.Emphasis:
		out.Kind = KindEmphasis
		if v.Level == 2 {
			out.Kind = KindStrong
		}
	case *ast.Link:
		out.Kind = KindLink
		out.Href = string(v.Destination)
		out.Title = string(v.Title)
	case *ast.AutoLink:
		out.Kind = KindLink
		href := string(v.URL(c.source))
		if v.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			href = "mailto:" + href
		}
		out.Href = href
		out.Children = []*Node{{Kind: KindText, Context: ctx.With(KindLink), Literal: string(v.Label(c.source))}}
		return []*Node{out}
	case *ast.Image:
		out.Kind = KindImage
		out.Href = string(v.Destination)
		out.Title = string(v.Title)
		out.Literal = c.plain(v)
		return []*Node{out}
	case *ast.RawHTML:
		out.Kind = KindHTMLInline
		var b bytes.Buffer
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		out.Literal = b.String()
		return []*Node{out}
	case *east.Strikethrough:
		out.Kind = KindStrikethrough
	case *east.Table:
		out.Kind = KindTable
		out.NumColumns = len(v.Alignments)
	case *east.TableHeader:
		out.Kind = KindTableRow
		out.Header = true
	case *east.TableRow:
		out.Kind = KindTableRow
	case *east.TableCell:
		out.Kind = KindTableCell
		out.Align = v.Alignment.String()
	case *mentionNode:
		out.Kind = KindMention
		out.Name = v.Name
		return []*Node{out}
	case *hashtagNode:
		out.Kind = KindHashtag
		out.Name = v.Name
		return []*Node{out}
	case *emojiNode:
		out.Kind = KindEmoji
		out.Name = v.Name
		out.Literal = v.Glyph
		return []*Node{out}
	default:
		// extensions we do not know degrade to their text
		out.Kind = KindText
		out.Literal = c.plain(n)
		return []*Node{out}
	}

	out.Children = c.children(n, ctx.With(out.Kind))
	return []*Node{out}
}

// children converts the children of n, merging adjacent text nodes.
func (c *converter) children(n ast.Node, ctx Context) []*Node {
	var out []*Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		for _, converted := range c.convert(child, ctx) {
			if converted.Kind == KindText && len(out) > 0 && out[len(out)-1].Kind == KindText {
				out[len(out)-1].Literal += converted.Literal
				continue
			}
			if converted.Kind == KindText && converted.Literal == "" {
				continue
			}
			out = append(out, converted)
		}
	}
	return out
}

func (c *converter) textValue(t *ast.Text) string {
	value := t.Segment.Value(c.source)
	if t.IsRaw() {
		return string(value)
	}
	value = util.UnescapePunctuations(value)
	value = util.ResolveNumericReferences(value)
	value = util.ResolveEntityNames(value)
	return string(value)
}

func (c *converter) lines(lines *text.Segments) string {
	var b bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// plain concatenates the text of every descendant of n.
func (c *converter) plain(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := child.(type) {
		case *ast.Text:
			b.WriteString(c.textValue(v))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(v.Value)
		case *emojiNode:
			if v.Glyph != "" {
				b.WriteString(v.Glyph)
			} else {
				b.WriteString(":" + v.Name + ":")
			}
		case *mentionNode:
			b.WriteString("@" + v.Name)
		case *hashtagNode:
			b.WriteString("#" + v.Name)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
