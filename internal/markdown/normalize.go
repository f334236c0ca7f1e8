package markdown

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kyokomi/emoji/v2"
)

var (
	// legacyLinkRegex matches <http://link|Text>. Either bracket may be the
	// ASCII or the full-width form, independently of the other.
	legacyLinkRegex = regexp.MustCompile(`(?:<|＜)((?:https|http)://[^|\s<>＜＞]+)\|(.+?)(?:>|＞)`)

	// silentAttachmentRegex matches a leading empty-label link followed by
	// whitespace, e.g. "[ ](https://chat.example.com/group/x?msg=abc) Text".
	silentAttachmentRegex = regexp.MustCompile(`^\[\s*\]\([^)]*\)\s`)

	shortcodeRegex = regexp.MustCompile(`:[a-zA-Z0-9_+\-]+:`)

	// emojiGlyphRegex matches one Unicode emoji: a pictographic base with
	// optional variation selector and skin tone, zero-width-joiner
	// sequences, or a regional indicator pair.
	emojiGlyphRegex = regexp.MustCompile(
		`(?:[\x{1F1E6}-\x{1F1FF}]{2})|` +
			`(?:[\x{00A9}\x{00AE}\x{203C}\x{2049}\x{2122}\x{2139}\x{2194}-\x{21AA}\x{231A}-\x{23FF}\x{24C2}\x{25AA}-\x{27BF}\x{2934}\x{2935}\x{2B05}-\x{2B55}\x{3030}\x{303D}\x{3297}\x{3299}\x{1F000}-\x{1FAFF}]` +
			`[\x{FE0F}\x{1F3FB}-\x{1F3FF}]*` +
			`(?:\x{200D}[\x{2600}-\x{27BF}\x{1F000}-\x{1FAFF}][\x{FE0F}\x{1F3FB}-\x{1F3FF}]*)*)`,
	)
)

type emojiTables struct {
	byCode  map[string]string // ":smile:" -> glyph
	byGlyph map[string]string // glyph -> ":smile:"
}

var (
	tablesOnce sync.Once
	tables     emojiTables
)

func emojiTable() emojiTables {
	tablesOnce.Do(func() {
		codes := emoji.CodeMap()
		tables.byCode = make(map[string]string, len(codes))
		aliases := make(map[string][]string, len(codes))
		for code, glyph := range codes {
			glyph = strings.TrimSpace(glyph)
			tables.byCode[code] = glyph
			aliases[glyph] = append(aliases[glyph], code)
		}
		tables.byGlyph = make(map[string]string, len(aliases))
		for glyph, codes := range aliases {
			// shortest alias wins, ties broken alphabetically
			sort.Slice(codes, func(i, j int) bool {
				if len(codes[i]) != len(codes[j]) {
					return len(codes[i]) < len(codes[j])
				}
				return codes[i] < codes[j]
			})
			tables.byGlyph[glyph] = codes[0]
		}
	})
	return tables
}

// Normalize prepares raw message text for parsing: legacy links are
// rewritten to markdown links, a leading silent attachment link is dropped
// and known shortcodes are expanded to Unicode.
func Normalize(raw string) string {
	m := legacyLinkRegex.ReplaceAllString(raw, "[$2]($1)")
	m = strings.TrimSpace(m)
	m = silentAttachmentRegex.ReplaceAllString(m, "")
	m = strings.TrimSpace(m)
	return ShortnameToUnicode(m)
}

// ShortnameToUnicode replaces known :shortcodes: with their glyph. Unknown
// shortcodes, custom emoji among them, are left untouched.
func ShortnameToUnicode(s string) string {
	if !strings.Contains(s, ":") {
		return s
	}
	t := emojiTable()
	return shortcodeRegex.ReplaceAllStringFunc(s, func(code string) string {
		if glyph, ok := t.byCode[code]; ok {
			return glyph
		}
		return code
	})
}

// ToShort replaces Unicode emoji with their :shortcode: where one is known.
func ToShort(s string) string {
	return emojiGlyphRegex.ReplaceAllStringFunc(s, func(glyph string) string {
		if code, ok := lookupShortcode(glyph); ok {
			return code
		}
		return glyph
	})
}

// lookupShortcode finds the shortcode of a glyph, retrying without
// variation selectors.
func lookupShortcode(glyph string) (string, bool) {
	t := emojiTable()
	if code, ok := t.byGlyph[glyph]; ok {
		return code, true
	}
	bare := strings.ReplaceAll(glyph, "\ufe0f", "")
	if code, ok := t.byGlyph[bare]; ok {
		return code, true
	}
	if code, ok := t.byGlyph[bare+"\ufe0f"]; ok {
		return code, true
	}
	return "", false
}

// unicodeForShortcode returns the glyph of a known short name (without
// colons).
func unicodeForShortcode(name string) (string, bool) {
	glyph, ok := emojiTable().byCode[":"+name+":"]
	return glyph, ok
}
