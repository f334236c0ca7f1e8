package domain

import (
	"time"
)

// ThreadSummary is a thread root message as the server reports it.
type ThreadSummary struct {
	Id          ThreadId     `json:"_id" validate:"required"`
	RoomId      RoomId       `json:"rid" validate:"required"`
	Msg         MsgText      `json:"msg"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Author      User         `json:"u"`
	Alias       string       `json:"alias,omitempty"`
	Ts          time.Time    `json:"ts"`
	UpdatedAt   time.Time    `json:"_updatedAt"`
	EditedAt    *time.Time   `json:"editedAt,omitempty"`
	Tlm         *time.Time   `json:"tlm,omitempty"` // time of the last reply
	Tcount      int          `json:"tcount"`
	Type        string       `json:"t,omitempty"`
}

// TypeRemoved marks a message the server keeps as a removal placeholder.
const TypeRemoved = "rm"

// Removed reports whether the message was deleted on the server.
func (t ThreadSummary) Removed() bool {
	return t.Type == TypeRemoved
}

// ThreadPage is one page of the server thread list. Count is the number of
// items the server sent, including any dropped as invalid, so paging
// stays aligned with the server even when Threads is shorter.
type ThreadPage struct {
	Threads []ThreadSummary
	Count   int
}

// ThreadRecord is the local projection of a ThreadSummary owned by a
// subscription.
type ThreadRecord struct {
	ThreadSummary
	SubscriptionId SubscriptionId
	DraftMessage   string
}

// Title is the text used to name the thread: its message, or the title of
// the first attachment for attachment-only messages.
func (t ThreadSummary) Title() string {
	if t.Msg != "" {
		return t.Msg
	}
	if len(t.Attachments) > 0 {
		return t.Attachments[0].Title
	}
	return ""
}

// IsEdited reports whether the message carries an edit mark.
func (t ThreadSummary) IsEdited() bool {
	return t.EditedAt != nil
}

// Equal compares summaries field by field. Timestamps are compared as
// instants so values read back from storage match decoded ones.
func (t ThreadSummary) Equal(o ThreadSummary) bool {
	return t.Id == o.Id &&
		t.RoomId == o.RoomId &&
		t.Msg == o.Msg &&
		t.Author == o.Author &&
		t.Alias == o.Alias &&
		t.Tcount == o.Tcount &&
		t.Ts.Equal(o.Ts) &&
		t.UpdatedAt.Equal(o.UpdatedAt) &&
		timePtrEqual(t.EditedAt, o.EditedAt) &&
		timePtrEqual(t.Tlm, o.Tlm) &&
		attachmentsEqual(t.Attachments, o.Attachments)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
