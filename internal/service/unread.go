package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/itchan-dev/roomkit/shared/domain"
)

const unreadDisplayCap = 999

// UnreadBadge sums unread messages of open, non-archived subscriptions and
// returns the total with its display label. The label is empty for zero.
func UnreadBadge(subs []domain.Subscription) (int, string) {
	total := 0
	for _, sub := range subs {
		if !sub.Open || sub.Archived {
			continue
		}
		total += sub.Unread
	}
	return total, UnreadLabel(total)
}

func UnreadLabel(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > unreadDisplayCap:
		return "+" + strconv.Itoa(unreadDisplayCap)
	}
	return strconv.Itoa(n)
}

// RoomAccessibilityLabel is the spoken description of a room list entry.
func RoomAccessibilityLabel(sub domain.Subscription, useRealName bool, lastMessage string) string {
	parts := []string{sub.Title(useRealName, false)}
	switch {
	case sub.UserMentions > 0:
		parts = append(parts, fmt.Sprintf("%d mentions", sub.UserMentions))
	case sub.Unread == 1:
		parts = append(parts, "1 unread message")
	case sub.Unread > 1:
		parts = append(parts, fmt.Sprintf("%d unread messages", sub.Unread))
	case sub.Alert:
		parts = append(parts, "new messages")
	}
	if lastMessage != "" {
		parts = append(parts, "last message: "+lastMessage)
	}
	return strings.Join(parts, ", ")
}
