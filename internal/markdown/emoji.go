package markdown

import (
	"regexp"
	"strings"
)

// bigEmojiThreshold is the largest emoji count still rendered with the
// large glyph size. Counting stops right after it.
const bigEmojiThreshold = 3

// emojiUnitRegex matches one strippable unit: a joiner or whitespace
// (stripped, not counted), a pictographic code point or a :shortcode:.
// The shortcode branch is a heuristic and accepts any 1..40 characters
// between colons.
var emojiUnitRegex = regexp.MustCompile(
	`[\x{200D}\x{FE0F}\s]|\x{00A9}|\x{00AE}|[\x{2000}-\x{3300}]|[\x{1F000}-\x{1FBFF}]|:.{1,40}?:`,
)

func isJoiner(unit string) bool {
	return strings.TrimSpace(strings.NewReplacer("\u200d", "", "\ufe0f", "").Replace(unit)) == ""
}

// IsOnlyEmoji reports whether s holds nothing but emoji, shortcodes and
// whitespace.
func IsOnlyEmoji(s string) bool {
	return emojiUnitRegex.ReplaceAllString(s, "") == ""
}

// EmojiCount strips one emoji at a time and counts the strips. It stops
// once the count exceeds bigEmojiThreshold, so any result above the
// threshold only means "more than three".
func EmojiCount(s string) int {
	count := 0
	for count <= bigEmojiThreshold {
		loc := emojiUnitRegex.FindStringIndex(s)
		if loc == nil || loc[0] == loc[1] {
			break
		}
		if !isJoiner(s[loc[0]:loc[1]]) {
			count++
		}
		s = s[:loc[0]] + s[loc[1]:]
	}
	return count
}

// IsBigEmoji is the presentation predicate: the message is emoji only and
// holds between one and three emoji.
func IsBigEmoji(s string) bool {
	if !IsOnlyEmoji(s) {
		return false
	}
	n := EmojiCount(s)
	return n >= 1 && n <= bigEmojiThreshold
}
