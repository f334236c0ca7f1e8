package markdown

import (
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// mentionNode is an @username reference.
type mentionNode struct {
	ast.BaseInline
	Name string
}

var kindMentionNode = ast.NewNodeKind("Mention")

func (n *mentionNode) Kind() ast.NodeKind {
	return kindMentionNode
}

func (n *mentionNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

// hashtagNode is a #channel reference.
type hashtagNode struct {
	ast.BaseInline
	Name string
}

var kindHashtagNode = ast.NewNodeKind("Hashtag")

func (n *hashtagNode) Kind() ast.NodeKind {
	return kindHashtagNode
}

func (n *hashtagNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

// emojiNode is either a :shortcode: left over after normalization (Glyph
// empty, resolved at render time) or a Unicode glyph split out of text.
type emojiNode struct {
	ast.BaseInline
	Name  string
	Glyph string
}

var kindEmojiNode = ast.NewNodeKind("Emoji")

func (n *emojiNode) Kind() ast.NodeKind {
	return kindEmojiNode
}

func (n *emojiNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name, "Glyph": n.Glyph}, nil)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanName returns the byte length of the user or channel name at the
// start of b. Trailing dots belong to the sentence, not the name.
func scanName(b []byte) int {
	n := 0
	for n < len(b) {
		r, size := utf8.DecodeRune(b[n:])
		if !(isWordRune(r) || r == '.' || r == '-') {
			break
		}
		n += size
	}
	for n > 0 && b[n-1] == '.' {
		n--
	}
	return n
}

// referenceParser parses @mentions and #hashtags. A reference must not be
// glued to a preceding word, so "mail@host" stays plain text.
type referenceParser struct {
	trigger byte
}

func NewMentionParser() parser.InlineParser {
	return &referenceParser{trigger: '@'}
}

func NewHashtagParser() parser.InlineParser {
	return &referenceParser{trigger: '#'}
}

func (p *referenceParser) Trigger() []byte {
	return []byte{p.trigger}
}

func (p *referenceParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	if isWordRune(block.PrecendingCharacter()) {
		return nil
	}
	line, _ := block.PeekLine()
	if len(line) < 2 || line[0] != p.trigger {
		return nil
	}
	n := scanName(line[1:])
	if n == 0 {
		return nil
	}
	name := string(line[1 : 1+n])
	block.Advance(1 + n)
	if p.trigger == '@' {
		return &mentionNode{Name: name}
	}
	return &hashtagNode{Name: name}
}

// shortcodeParser parses :name: emoji references.
type shortcodeParser struct{}

func NewShortcodeParser() parser.InlineParser {
	return &shortcodeParser{}
}

func (p *shortcodeParser) Trigger() []byte {
	return []byte{':'}
}

func isShortcodeByte(c byte) bool {
	return c == '_' || c == '+' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func (p *shortcodeParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	if isWordRune(block.PrecendingCharacter()) {
		return nil
	}
	line, _ := block.PeekLine()
	if len(line) < 3 || line[0] != ':' {
		return nil
	}
	i := 1
	for i < len(line) && isShortcodeByte(line[i]) {
		i++
	}
	if i == 1 || i >= len(line) || line[i] != ':' {
		return nil
	}
	name := string(line[1:i])
	block.Advance(i + 1)
	return &emojiNode{Name: name}
}

// emojiTransformer splits Unicode emoji out of text nodes so they render as
// their own units. Code, raw HTML and autolinks are left alone.
type emojiTransformer struct{}

func (t *emojiTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var targets []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeSpan, ast.KindCodeBlock, ast.KindFencedCodeBlock,
			ast.KindHTMLBlock, ast.KindRawHTML, ast.KindAutoLink:
			return ast.WalkSkipChildren, nil
		}
		if txt, ok := n.(*ast.Text); ok && txt.Segment.Padding == 0 && !txt.IsRaw() {
			if emojiGlyphRegex.Match(txt.Segment.Value(source)) {
				targets = append(targets, txt)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, txt := range targets {
		splitEmoji(txt, source)
	}
}

func splitEmoji(txt *ast.Text, source []byte) {
	parent := txt.Parent()
	if parent == nil {
		return
	}
	seg := txt.Segment
	value := seg.Value(source)
	matches := emojiGlyphRegex.FindAllIndex(value, -1)

	var last ast.Node
	insert := func(n ast.Node) {
		parent.InsertBefore(parent, txt, n)
		last = n
	}
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			insert(ast.NewTextSegment(text.NewSegment(seg.Start+pos, seg.Start+m[0])))
		}
		glyph := string(value[m[0]:m[1]])
		name, _ := lookupShortcode(glyph)
		if len(name) > 2 {
			name = name[1 : len(name)-1]
		}
		insert(&emojiNode{Name: name, Glyph: glyph})
		pos = m[1]
	}
	if pos < len(value) {
		insert(ast.NewTextSegment(text.NewSegment(seg.Start+pos, seg.Stop)))
	}

	if txt.SoftLineBreak() || txt.HardLineBreak() {
		tail, ok := last.(*ast.Text)
		if !ok {
			tail = ast.NewTextSegment(text.NewSegment(seg.Stop, seg.Stop))
			parent.InsertBefore(parent, txt, tail)
		}
		tail.SetSoftLineBreak(txt.SoftLineBreak())
		tail.SetHardLineBreak(txt.HardLineBreak())
	}
	parent.RemoveChild(parent, txt)
}
