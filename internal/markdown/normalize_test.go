package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text untouched",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "legacy link",
			input:    "see <https://example.com|Example>",
			expected: "see [Example](https://example.com)",
		},
		{
			name:     "full-width brackets",
			input:    "＜https://example.com|Example＞",
			expected: "[Example](https://example.com)",
		},
		{
			name:     "mixed brackets",
			input:    "<http://example.com|Example＞",
			expected: "[Example](http://example.com)",
		},
		{
			name:     "two legacy links stay separate",
			input:    "<https://a.com|A> and <https://b.com|B>",
			expected: "[A](https://a.com) and [B](https://b.com)",
		},
		{
			name:     "not a legacy link without scheme",
			input:    "<ftp://a.com|A>",
			expected: "<ftp://a.com|A>",
		},
		{
			name:     "silent attachment prefix stripped",
			input:    "[ ](https://chat.example.com/group/x?msg=abc) quoted reply",
			expected: "quoted reply",
		},
		{
			name:     "empty-label link alone is kept",
			input:    "[ ](https://chat.example.com/group/x?msg=abc)",
			expected: "[ ](https://chat.example.com/group/x?msg=abc)",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  \n hi \n ",
			expected: "hi",
		},
		{
			name:     "shortcode expanded",
			input:    ":smile: hi",
			expected: "😄 hi",
		},
		{
			name:     "unknown shortcode kept",
			input:    ":party_parrot_zz:",
			expected: ":party_parrot_zz:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeNeverFails(t *testing.T) {
	for _, input := range []string{"", "<", "＜|＞", "<https://|>", "::", "[](", "\x00\xff"} {
		assert.NotPanics(t, func() { Normalize(input) }, input)
	}
}

func TestToShort(t *testing.T) {
	assert.Equal(t, "hi :+1:", ToShort("hi 👍"))
	assert.Equal(t, "no emoji here", ToShort("no emoji here"))
	assert.Equal(t, "👍", ShortnameToUnicode(ToShort("👍")))
}

func TestShortnameToUnicode(t *testing.T) {
	assert.Equal(t, "👍 and 👍", ShortnameToUnicode(":+1: and :thumbsup:"))
	assert.Equal(t, "time: 10:30", ShortnameToUnicode("time: 10:30"))
}
