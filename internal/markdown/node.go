package markdown

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a syntax tree node. The set is closed:
// every value below kindCount must have a renderer.
type Kind int

const (
	KindDocument Kind = iota
	KindText
	KindEmphasis
	KindStrong
	KindStrikethrough
	KindCode
	KindLink
	KindImage
	KindMention
	KindHashtag
	KindEmoji
	KindParagraph
	KindHeading
	KindCodeBlock
	KindBlockQuote
	KindList
	KindListItem
	KindHardBreak
	KindSoftBreak
	KindThematicBreak
	KindHTMLBlock
	KindHTMLInline
	KindTable
	KindTableRow
	KindTableCell
	KindEditedIndicator
	kindCount
)

var kindNames = [kindCount]string{
	KindDocument:        "document",
	KindText:            "text",
	KindEmphasis:        "emph",
	KindStrong:          "strong",
	KindStrikethrough:   "del",
	KindCode:            "code",
	KindLink:            "link",
	KindImage:           "image",
	KindMention:         "atMention",
	KindHashtag:         "hashtag",
	KindEmoji:           "emoji",
	KindParagraph:       "paragraph",
	KindHeading:         "heading",
	KindCodeBlock:       "codeBlock",
	KindBlockQuote:      "blockQuote",
	KindList:            "list",
	KindListItem:        "item",
	KindHardBreak:       "hardBreak",
	KindSoftBreak:       "softBreak",
	KindThematicBreak:   "thematicBreak",
	KindHTMLBlock:       "htmlBlock",
	KindHTMLInline:      "htmlInline",
	KindTable:           "table",
	KindTableRow:        "table_row",
	KindTableCell:       "table_cell",
	KindEditedIndicator: "editedIndicator",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsBlock reports whether nodes of this kind start a new block.
func (k Kind) IsBlock() bool {
	switch k {
	case KindDocument, KindParagraph, KindHeading, KindCodeBlock, KindBlockQuote,
		KindList, KindListItem, KindThematicBreak, KindHTMLBlock,
		KindTable, KindTableRow, KindTableCell:
		return true
	}
	return false
}

// Context is the immutable list of ancestor kinds of a node, outermost
// first. The document root is not part of it.
type Context struct {
	kinds []Kind
}

// With returns a new context with k appended. The receiver is not modified.
func (c Context) With(k Kind) Context {
	kinds := make([]Kind, len(c.kinds)+1)
	copy(kinds, c.kinds)
	kinds[len(c.kinds)] = k
	return Context{kinds: kinds}
}

func (c Context) Len() int {
	return len(c.kinds)
}

// Kinds returns a copy of the ancestor kinds.
func (c Context) Kinds() []Kind {
	out := make([]Kind, len(c.kinds))
	copy(out, c.kinds)
	return out
}

// Count returns how many ancestors are of kind k.
func (c Context) Count(k Kind) int {
	n := 0
	for _, kind := range c.kinds {
		if kind == k {
			n++
		}
	}
	return n
}

func (c Context) Contains(k Kind) bool {
	return c.Count(k) > 0
}

// Node is a syntax tree node. Trees are not modified after Parse returns,
// except for the edited indicator splice done by RenderMessage on the tree
// it just parsed.
type Node struct {
	Kind     Kind
	Children []*Node
	Context  Context

	Literal string // text, code, code block and raw HTML content; emoji glyph
	Href    string // link destination, image source
	Title   string // link and image title
	Name    string // mention user name, hashtag channel name, emoji short name
	Info    string // code block language

	Level int // heading level, 1..6

	Ordered bool // list
	Start   int  // first number of an ordered list
	Tight   bool // list without paragraph spacing

	Header     bool   // table row belongs to the header
	Align      string // table cell alignment
	NumColumns int    // table
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// LastChild returns the last child or nil.
func (n *Node) LastChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// PlainText flattens the subtree into its literal text. Breaks become
// breakAs and sibling blocks are joined with breakAs as well.
func (n *Node) PlainText(breakAs string) string {
	var b strings.Builder
	n.writePlain(&b, breakAs)
	return b.String()
}

func (n *Node) writePlain(b *strings.Builder, breakAs string) {
	switch n.Kind {
	case KindText, KindCode, KindCodeBlock, KindHTMLBlock, KindHTMLInline, KindEditedIndicator:
		b.WriteString(n.Literal)
		return
	case KindEmoji:
		// shortcodes without a Unicode glyph keep their text form
		if n.Literal == "" && n.Name != "" {
			b.WriteString(":" + n.Name + ":")
			return
		}
		b.WriteString(n.Literal)
		return
	case KindMention:
		b.WriteString("@" + n.Name)
		return
	case KindHashtag:
		b.WriteString("#" + n.Name)
		return
	case KindImage:
		b.WriteString(n.Literal)
		return
	case KindHardBreak, KindSoftBreak, KindThematicBreak:
		b.WriteString(breakAs)
		return
	}

	prevBlock := false
	for _, child := range n.Children {
		block := child.Kind.IsBlock()
		if block && prevBlock {
			b.WriteString(breakAs)
		}
		child.writePlain(b, breakAs)
		prevBlock = block
	}
}
