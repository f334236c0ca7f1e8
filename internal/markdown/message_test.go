package markdown

import (
	"testing"

	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMessageEmpty(t *testing.T) {
	assert.Nil(t, RenderMessage("", Options{}))
}

func TestRenderMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     Options
		expected string
	}{
		{
			name:     "plain",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "legacy link is rendered as link text",
			input:    "<https://example.com|Example>",
			expected: "Example",
		},
		{
			name:     "markdown disabled",
			input:    "**not bold**",
			opts:     Options{DisableMarkdown: true},
			expected: "**not bold**",
		},
		{
			name:     "markdown disabled is ignored in preview",
			input:    "**bold**",
			opts:     Options{DisableMarkdown: true, RenderContext: RenderContext{Preview: true}},
			expected: "bold",
		},
		{
			name:     "preview collapses paragraphs",
			input:    "a\n\nb\n\nc",
			opts:     Options{RenderContext: RenderContext{Preview: true}},
			expected: "a b c",
		},
		{
			name:     "edited paragraph",
			input:    "hello",
			opts:     Options{IsEdited: true},
			expected: "hello (edited)",
		},
		{
			name:     "edited with custom label",
			input:    "hello",
			opts:     Options{IsEdited: true, RenderContext: RenderContext{EditedLabel: "bearbeitet"}},
			expected: "hello (bearbeitet)",
		},
		{
			name:     "edited indicator is dropped in preview",
			input:    "hello",
			opts:     Options{IsEdited: true, RenderContext: RenderContext{Preview: true}},
			expected: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderMessage(tt.input, tt.opts)
			require.NotNil(t, out)
			assert.Equal(t, tt.expected, out.PlainText())
		})
	}
}

func TestRenderMessageEditedAfterCodeBlock(t *testing.T) {
	out := RenderMessage("```\ncode\n```", Options{IsEdited: true})
	root := out.Root()

	require.Len(t, root.Children, 2)
	assert.Equal(t, ElementCodeBlock, root.Children[0].Element)
	last := root.Children[1]
	assert.Equal(t, ElementParagraph, last.Element)
	require.Len(t, last.Children, 1)
	assert.Equal(t, KindEditedIndicator, last.Children[0].Kind)
}

func TestRenderMessageEditedHeading(t *testing.T) {
	root := RenderMessage("# Title", Options{IsEdited: true}).Root()

	require.Len(t, root.Children, 1)
	heading := root.Children[0]
	assert.Equal(t, ElementHeading, heading.Element)
	assert.Equal(t, KindEditedIndicator, heading.Children[len(heading.Children)-1].Kind)
}

func TestRenderMessageBigEmoji(t *testing.T) {
	tests := []struct {
		name  string
		input string
		big   bool
	}{
		{"one glyph", "👍", true},
		{"three shortcodes", ":smile: :smile: :smile:", true},
		{"four", "👍👍👍👍", false},
		{"with text", "nice 👍", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := RenderMessage(tt.input, Options{}).Root()
			emoji := units(root, ElementEmoji)
			require.NotEmpty(t, emoji)
			for _, u := range emoji {
				assert.Equal(t, tt.big, u.Big)
			}
		})
	}
}

func TestRenderMessagePreviewKeepsShortcodes(t *testing.T) {
	lookup := func(name string) (domain.CustomEmoji, bool) {
		if name == "party_blob" {
			return domain.CustomEmoji{Name: name, Extension: "gif"}, true
		}
		return domain.CustomEmoji{}, false
	}
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"custom emoji in text", "party :party_blob: now", "party :party_blob: now"},
		{"custom emoji only", ":party_blob:", ":party_blob:"},
		{"unknown shortcode", "hi :no_such_emoji_here:", "hi :no_such_emoji_here:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{RenderContext: RenderContext{Preview: true, CustomEmoji: lookup, BaseURL: "https://chat.example.com"}}
			out := RenderMessage(tt.input, opts)
			require.NotNil(t, out)
			assert.Equal(t, tt.expected, out.PlainText())
		})
	}
}
