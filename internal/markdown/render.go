package markdown

import (
	"fmt"
	"strings"
	"sync"

	"github.com/itchan-dev/roomkit/shared/domain"
)

const defaultEditedLabel = "edited"

// NameSet answers membership questions for mentions and channels.
type NameSet interface {
	Has(name string) bool
}

// Names is a NameSet backed by a map. The zero value is an empty set.
type Names map[string]struct{}

func NewNames(names ...string) Names {
	set := make(Names, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s Names) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// RenderContext carries everything the renderer needs besides the tree.
type RenderContext struct {
	NumberOfLines int      `json:"numberOfLines,omitempty"`
	Preview       bool     `json:"preview,omitempty"`
	Style         []string `json:"style,omitempty"`
	Channels      NameSet  `json:"-"`
	Mentions      NameSet  `json:"-"`
	Username      string   `json:"username,omitempty"`
	BaseURL       string   `json:"baseUrl,omitempty"`
	ThreadReply   bool     `json:"tmid,omitempty"`
	OnlyEmoji     bool     `json:"-"`
	EditedLabel   string   `json:"editedLabel,omitempty"`

	// CustomEmoji resolves a server emoji by name or alias.
	CustomEmoji func(name string) (domain.CustomEmoji, bool) `json:"-"`
}

// Element is what a shell draws for a unit.
type Element string

const (
	ElementFragment   Element = "fragment"
	ElementText       Element = "text"
	ElementBreak      Element = "break"
	ElementParagraph  Element = "paragraph"
	ElementHeading    Element = "heading"
	ElementCode       Element = "code"
	ElementCodeBlock  Element = "codeBlock"
	ElementBlockQuote Element = "blockQuote"
	ElementLink       Element = "link"
	ElementImage      Element = "image"
	ElementMention    Element = "mention"
	ElementHashtag    Element = "hashtag"
	ElementEmoji      Element = "emoji"
	ElementList       Element = "list"
	ElementListItem   Element = "listItem"
	ElementTable      Element = "table"
	ElementTableRow   Element = "tableRow"
	ElementTableCell  Element = "tableCell"
)

// Unit is one renderable element. Units are produced 1:1 from nodes, except
// that empty paragraphs produce nothing.
type Unit struct {
	Kind     Kind     `json:"kind"`
	Element  Element  `json:"element"`
	Literal  string   `json:"literal,omitempty"`
	Styles   []string `json:"styles,omitempty"`
	Lines    int      `json:"lines,omitempty"`
	Href     string   `json:"href,omitempty"`
	Language string   `json:"language,omitempty"`
	Level    int      `json:"level,omitempty"`
	Index    int      `json:"index,omitempty"`
	Ordered  bool     `json:"ordered,omitempty"`
	Start    int      `json:"start,omitempty"`
	Tight    bool     `json:"tight,omitempty"`
	Resolved bool     `json:"resolved,omitempty"`
	Big      bool     `json:"big,omitempty"`
	Header   bool     `json:"header,omitempty"`
	Align    string   `json:"align,omitempty"`
	Columns  int      `json:"columns,omitempty"`
	Children []*Unit  `json:"children,omitempty"`
}

// Output is a lazily rendered tree. Units are built on first access.
type Output struct {
	tree *Node
	ctx  RenderContext

	once sync.Once
	root *Unit
}

// Render binds a tree to a context. Nothing is rendered until Root is
// called.
func Render(tree *Node, ctx RenderContext) *Output {
	return &Output{tree: tree, ctx: ctx}
}

// Root returns the rendered unit tree. It panics on a node kind that has no
// renderer.
func (o *Output) Root() *Unit {
	o.once.Do(func() {
		r := renderer{ctx: o.ctx}
		if r.ctx.EditedLabel == "" {
			r.ctx.EditedLabel = defaultEditedLabel
		}
		if o.ctx.Preview {
			o.root = r.preview(o.tree)
			return
		}
		o.root = r.render(o.tree)
	})
	return o.root
}

func (o *Output) Context() RenderContext {
	return o.ctx
}

// StyleToken names the style a shell applies to nodes of n's variant.
func StyleToken(n *Node) string {
	switch n.Kind {
	case KindHeading:
		return fmt.Sprintf("heading%dText", n.Level)
	case KindEditedIndicator:
		return "edited"
	}
	return n.Kind.String()
}

type renderer struct {
	ctx RenderContext
}

func (r *renderer) children(n *Node) []*Unit {
	out := make([]*Unit, 0, len(n.Children))
	for _, child := range n.Children {
		if u := r.render(child); u != nil {
			out = append(out, u)
		}
	}
	return out
}

func (r *renderer) textStyles(n *Node) []string {
	styles := []string{"text"}
	if r.ctx.OnlyEmoji {
		styles[0] = "textBig"
	}
	for _, k := range n.Context.kinds {
		styles = append(styles, k.String())
	}
	return append(styles, r.ctx.Style...)
}

func (r *renderer) breakLiteral() string {
	if r.ctx.ThreadReply {
		return " "
	}
	return "\n"
}

func (r *renderer) render(n *Node) *Unit {
	u := &Unit{Kind: n.Kind}

	switch n.Kind {
	case KindDocument, KindEmphasis, KindStrong, KindStrikethrough:
		u.Element = ElementFragment
		u.Children = r.children(n)
	case KindText:
		u.Element = ElementText
		u.Literal = n.Literal
		u.Styles = r.textStyles(n)
	case KindHTMLBlock, KindHTMLInline:
		u.Element = ElementText
		u.Literal = n.Literal
		u.Styles = r.textStyles(n)
	case KindSoftBreak, KindHardBreak, KindThematicBreak:
		u.Element = ElementBreak
		u.Literal = r.breakLiteral()
	case KindParagraph:
		if len(n.Children) == 0 {
			return nil
		}
		u.Element = ElementParagraph
		u.Lines = r.ctx.NumberOfLines
		u.Children = r.children(n)
	case KindHeading:
		u.Element = ElementHeading
		u.Level = n.Level
		u.Styles = []string{StyleToken(n)}
		u.Children = r.children(n)
	case KindCode:
		u.Element = ElementCode
		u.Literal = n.Literal
		u.Styles = append(r.textStyles(n), "code")
	case KindCodeBlock:
		u.Element = ElementCodeBlock
		u.Literal = n.Literal
		u.Language = n.Info
		u.Styles = []string{StyleToken(n)}
	case KindBlockQuote:
		u.Element = ElementBlockQuote
		u.Children = r.children(n)
	case KindLink:
		u.Element = ElementLink
		u.Href = n.Href
		u.Children = r.children(n)
	case KindImage:
		u.Element = ElementImage
		u.Href = n.Href
		u.Literal = n.Literal
	case KindMention:
		r.mention(n, u)
	case KindHashtag:
		r.hashtag(n, u)
	case KindEmoji:
		r.emoji(n, u)
	case KindList:
		u.Element = ElementList
		u.Ordered = n.Ordered
		u.Start = n.Start
		u.Tight = n.Tight
		u.Children = r.children(n)
		for i, item := range u.Children {
			item.Index = i + 1
		}
	case KindListItem:
		u.Element = ElementListItem
		u.Level = n.Context.Count(KindList)
		u.Children = r.children(n)
	case KindTable:
		u.Element = ElementTable
		u.Columns = n.NumColumns
		u.Children = r.children(n)
	case KindTableRow:
		u.Element = ElementTableRow
		u.Header = n.Header
		u.Children = r.children(n)
		for _, cell := range u.Children {
			cell.Header = n.Header
		}
	case KindTableCell:
		u.Element = ElementTableCell
		u.Align = n.Align
		u.Children = r.children(n)
	case KindEditedIndicator:
		u.Element = ElementText
		u.Literal = " (" + r.ctx.EditedLabel + ")"
		u.Styles = []string{StyleToken(n)}
	default:
		panic(fmt.Sprintf("markdown: no renderer for node kind %s", n.Kind))
	}
	return u
}

func (r *renderer) mention(n *Node, u *Unit) {
	var style string
	switch {
	case n.Name == "all" || n.Name == "here":
		style = "mentionAll"
	case r.ctx.Username != "" && n.Name == r.ctx.Username:
		style = "mentionLoggedUser"
	case r.ctx.Mentions != nil && r.ctx.Mentions.Has(n.Name):
		style = "mentionOther"
	default:
		u.Element = ElementText
		u.Literal = "@" + n.Name
		u.Styles = r.textStyles(n)
		return
	}
	u.Element = ElementMention
	u.Literal = "@" + n.Name
	u.Resolved = true
	u.Styles = []string{style}
}

func (r *renderer) hashtag(n *Node, u *Unit) {
	u.Literal = "#" + n.Name
	if r.ctx.Channels != nil && r.ctx.Channels.Has(n.Name) {
		u.Element = ElementHashtag
		u.Resolved = true
		u.Styles = []string{"mention"}
		return
	}
	u.Element = ElementText
	u.Styles = r.textStyles(n)
}

func (r *renderer) emoji(n *Node, u *Unit) {
	u.Big = r.ctx.OnlyEmoji
	if n.Literal == "" && r.ctx.CustomEmoji != nil {
		if custom, ok := r.ctx.CustomEmoji(n.Name); ok {
			u.Element = ElementEmoji
			u.Href = CustomEmojiURL(r.ctx.BaseURL, custom)
			u.Literal = ":" + n.Name + ":"
			u.Resolved = true
			return
		}
	}
	glyph := n.Literal
	if glyph == "" {
		glyph, _ = unicodeForShortcode(n.Name)
	}
	if glyph != "" {
		u.Element = ElementEmoji
		u.Literal = glyph
		return
	}
	u.Element = ElementText
	u.Literal = ":" + n.Name + ":"
	u.Styles = r.textStyles(n)
}

// CustomEmojiURL is where the server serves a custom emoji image.
func CustomEmojiURL(baseURL string, e domain.CustomEmoji) string {
	return fmt.Sprintf("%s/emoji-custom/%s.%s", strings.TrimSuffix(baseURL, "/"), e.Name, e.Extension)
}

// preview flattens every top-level block into one plain text unit.
func (r *renderer) preview(n *Node) *Unit {
	if n.Kind != KindDocument {
		return r.previewText(n)
	}
	u := &Unit{Kind: KindDocument, Element: ElementFragment}
	for _, child := range n.Children {
		u.Children = append(u.Children, r.previewText(child))
	}
	return u
}

func (r *renderer) previewText(n *Node) *Unit {
	styles := append([]string{"text"}, r.ctx.Style...)
	return &Unit{
		Kind:    n.Kind,
		Element: ElementText,
		Literal: n.PlainText(" "),
		Lines:   r.ctx.NumberOfLines,
		Styles:  styles,
	}
}
