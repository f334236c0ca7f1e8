package markdown

import (
	"strings"
	"testing"

	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func units(root *Unit, e Element) []*Unit {
	var out []*Unit
	var walk func(u *Unit)
	walk = func(u *Unit) {
		if u == nil {
			return
		}
		if u.Element == e {
			out = append(out, u)
		}
		for _, c := range u.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

func TestRenderEveryKind(t *testing.T) {
	for k := Kind(0); k < kindCount; k++ {
		t.Run(k.String(), func(t *testing.T) {
			assert.NotPanics(t, func() {
				Render(&Node{Kind: k, Level: 1}, RenderContext{}).Root()
			})
		})
	}
}

func TestRenderUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		Render(&Node{Kind: kindCount}, RenderContext{}).Root()
	})
}

func TestRenderIsLazy(t *testing.T) {
	out := Render(&Node{Kind: kindCount}, RenderContext{})
	assert.NotNil(t, out)
	assert.Panics(t, func() { out.Root() })
}

func TestStyleToken(t *testing.T) {
	for level := 1; level <= 6; level++ {
		n := &Node{Kind: KindHeading, Level: level}
		assert.Equal(t, "heading"+string(rune('0'+level))+"Text", StyleToken(n))
	}
	assert.Equal(t, "del", StyleToken(&Node{Kind: KindStrikethrough}))
	assert.Equal(t, "edited", StyleToken(&Node{Kind: KindEditedIndicator}))
}

func TestRenderTextStyles(t *testing.T) {
	tree := NewParser().Parse("**bold**")
	root := Render(tree, RenderContext{Style: []string{"custom"}}).Root()

	texts := units(root, ElementText)
	require.Len(t, texts, 1)
	assert.Equal(t, []string{"text", "paragraph", "strong", "custom"}, texts[0].Styles)
}

func TestRenderBreaks(t *testing.T) {
	tree := NewParser().Parse("one\ntwo")

	out := Render(tree, RenderContext{})
	assert.Equal(t, "one\ntwo", out.PlainText())

	out = Render(tree, RenderContext{ThreadReply: true})
	assert.Equal(t, "one two", out.PlainText())

	// thematic breaks follow the same rule
	tree = NewParser().Parse("a\n\n---")
	breaks := units(Render(tree, RenderContext{}).Root(), ElementBreak)
	require.Len(t, breaks, 1)
	assert.Equal(t, "\n", breaks[0].Literal)

	breaks = units(Render(tree, RenderContext{ThreadReply: true}).Root(), ElementBreak)
	require.Len(t, breaks, 1)
	assert.Equal(t, " ", breaks[0].Literal)
}

func TestRenderLists(t *testing.T) {
	tree := NewParser().Parse("2. a\n3. b\n   - nested")
	root := Render(tree, RenderContext{}).Root()

	lists := units(root, ElementList)
	require.Len(t, lists, 2)
	assert.True(t, lists[0].Ordered)
	assert.Equal(t, 2, lists[0].Start)
	assert.True(t, lists[0].Tight)
	assert.False(t, lists[1].Ordered)

	items := units(root, ElementListItem)
	require.Len(t, items, 3)
	assert.Equal(t, []int{1, 1, 2}, []int{items[0].Level, items[1].Level, items[2].Level})
	assert.Equal(t, []int{1, 2, 1}, []int{items[0].Index, items[1].Index, items[2].Index})
}

func TestRenderMentions(t *testing.T) {
	tree := NewParser().Parse("@all @me @friend @stranger")
	ctx := RenderContext{
		Username: "me",
		Mentions: NewNames("friend"),
	}
	root := Render(tree, ctx).Root()

	mentions := units(root, ElementMention)
	require.Len(t, mentions, 3)
	assert.Equal(t, []string{"mentionAll"}, mentions[0].Styles)
	assert.Equal(t, []string{"mentionLoggedUser"}, mentions[1].Styles)
	assert.Equal(t, []string{"mentionOther"}, mentions[2].Styles)

	assert.Equal(t, "@all @me @friend @stranger", Render(tree, ctx).PlainText())
}

func TestRenderHashtags(t *testing.T) {
	tree := NewParser().Parse("#general #unknown")
	root := Render(tree, RenderContext{Channels: NewNames("general")}).Root()

	tags := units(root, ElementHashtag)
	require.Len(t, tags, 1)
	assert.Equal(t, "#general", tags[0].Literal)
	assert.True(t, tags[0].Resolved)
}

func TestRenderEmoji(t *testing.T) {
	custom := func(name string) (domain.CustomEmoji, bool) {
		if name == "parrot" {
			return domain.CustomEmoji{Name: "parrot", Extension: "gif"}, true
		}
		return domain.CustomEmoji{}, false
	}
	tree := NewParser().Parse(":parrot: :smile: :nope_zz: 👍")
	root := Render(tree, RenderContext{CustomEmoji: custom, BaseURL: "https://chat.example.com/"}).Root()

	emoji := units(root, ElementEmoji)
	require.Len(t, emoji, 3)
	assert.Equal(t, "https://chat.example.com/emoji-custom/parrot.gif", emoji[0].Href)
	assert.True(t, emoji[0].Resolved)
	assert.Equal(t, "😄", emoji[1].Literal)
	assert.Equal(t, "👍", emoji[2].Literal)

	var literal []string
	for _, u := range units(root, ElementText) {
		literal = append(literal, u.Literal)
	}
	assert.Contains(t, strings.Join(literal, ""), ":nope_zz:")
}

func TestRenderEmptyParagraph(t *testing.T) {
	root := Render(&Node{Kind: KindDocument, Children: []*Node{{Kind: KindParagraph}}}, RenderContext{}).Root()
	assert.Empty(t, root.Children)
}

func TestRenderPreview(t *testing.T) {
	tree := NewParser().Parse("# Title\n\n- **one**\n- two\n\n```\ncode\n```")
	out := Render(tree, RenderContext{Preview: true, NumberOfLines: 2})
	root := out.Root()

	require.Equal(t, ElementFragment, root.Element)
	for _, child := range root.Children {
		assert.Equal(t, ElementText, child.Element)
		assert.Empty(t, child.Children)
		assert.Equal(t, 2, child.Lines)
	}
	assert.Equal(t, "Title one two code", out.PlainText())
}

func TestRenderTable(t *testing.T) {
	tree := NewParser().Parse("| a | b |\n| - | - |\n| 1 | 2 |")
	root := Render(tree, RenderContext{}).Root()

	tables := units(root, ElementTable)
	require.Len(t, tables, 1)
	assert.Equal(t, 2, tables[0].Columns)

	cells := units(root, ElementTableCell)
	require.Len(t, cells, 4)
	assert.True(t, cells[0].Header)
	assert.False(t, cells[2].Header)
}

func TestOutputHTML(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		contains    []string
		notContains []string
	}{
		{
			name:     "formatting",
			input:    "**bold** and _it_",
			contains: []string{"<strong>", "<em>", "bold"},
		},
		{
			name:        "javascript link is neutralized",
			input:       "[click](javascript:alert(1))",
			contains:    []string{"click"},
			notContains: []string{"javascript:"},
		},
		{
			name:        "raw html is escaped",
			input:       "<script>alert(1)</script>",
			notContains: []string{"<script>"},
		},
		{
			name:     "ordered list keeps start",
			input:    "5. five",
			contains: []string{`<ol start="5">`},
		},
		{
			name:     "heading",
			input:    "## Sub",
			contains: []string{"<h2", "Sub", "</h2>"},
		},
		{
			name:  "heading keeps its style class",
			input: "# Top\n\n### Third",
			contains: []string{
				`<h1 class="heading1Text">`,
				`<h3 class="heading3Text">`,
				"Top", "Third",
			},
		},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := Render(p.Parse(tt.input), RenderContext{}).HTML()
			for _, s := range tt.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, html, s)
			}
		})
	}
}
