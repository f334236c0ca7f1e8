package service

import (
	"testing"

	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestUnreadBadge(t *testing.T) {
	tests := []struct {
		name          string
		subs          []domain.Subscription
		expectedCount int
		expectedLabel string
	}{
		{
			name: "nothing unread",
			subs: []domain.Subscription{{Open: true}},
		},
		{
			name: "closed and archived rooms are skipped",
			subs: []domain.Subscription{
				{Open: true, Unread: 2},
				{Open: false, Unread: 10},
				{Open: true, Archived: true, Unread: 5},
				{Open: true, Unread: 3},
			},
			expectedCount: 5,
			expectedLabel: "5",
		},
		{
			name:          "capped label",
			subs:          []domain.Subscription{{Open: true, Unread: 600}, {Open: true, Unread: 600}},
			expectedCount: 1200,
			expectedLabel: "+999",
		},
		{
			name:          "exactly the cap",
			subs:          []domain.Subscription{{Open: true, Unread: 999}},
			expectedCount: 999,
			expectedLabel: "999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, label := UnreadBadge(tt.subs)
			assert.Equal(t, tt.expectedCount, count)
			assert.Equal(t, tt.expectedLabel, label)
		})
	}
}

func TestRoomAccessibilityLabel(t *testing.T) {
	sub := domain.Subscription{Name: "general", Fname: "General", Unread: 3}
	assert.Equal(t, "general, 3 unread messages, last message: hi", RoomAccessibilityLabel(sub, false, "hi"))

	sub.UserMentions = 1
	assert.Equal(t, "General, 1 mentions", RoomAccessibilityLabel(sub, true, ""))

	assert.Equal(t, "quiet", RoomAccessibilityLabel(domain.Subscription{Name: "quiet"}, false, ""))
}
