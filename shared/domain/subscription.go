package domain

import "time"

// Subscription is the local handle of a room the user belongs to.
type Subscription struct {
	Id             SubscriptionId `json:"_id" validate:"required"`
	RoomId         RoomId         `json:"rid" validate:"required"`
	Name           string         `json:"name"`
	Fname          string         `json:"fname,omitempty"`
	Type           string         `json:"t"`
	Unread         int            `json:"unread"`
	UserMentions   int            `json:"userMentions"`
	Alert          bool           `json:"alert"`
	Open           bool           `json:"open"`
	Archived       bool           `json:"archived"`
	LastOpen       *time.Time     `json:"ls,omitempty"`
	LastThreadSync *time.Time     `json:"lastThreadSync,omitempty"` // nil until the first full thread load
	DraftMessage   string         `json:"draftMessage,omitempty"`
	UpdatedAt      time.Time      `json:"_updatedAt"`
}

// Synced reports whether threads were loaded at least once.
func (s Subscription) Synced() bool {
	return s.LastThreadSync != nil
}

// Title is the room name shown in headers. Discussions and servers set to
// real names prefer the friendly name.
func (s Subscription) Title(useRealName bool, isDiscussion bool) string {
	if (isDiscussion || useRealName) && s.Fname != "" {
		return s.Fname
	}
	return s.Name
}
