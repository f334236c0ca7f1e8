package handler

import (
	"net/http"

	"github.com/itchan-dev/roomkit/internal/service"
	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/itchan-dev/roomkit/shared/utils"
)

type roomView struct {
	RoomId             domain.RoomId `json:"rid"`
	Title              string        `json:"title"`
	Type               string        `json:"t"`
	Unread             string        `json:"unread,omitempty"`
	Alert              bool          `json:"alert"`
	ThreadsSynced      bool          `json:"threadsSynced"`
	AccessibilityLabel string        `json:"accessibilityLabel"`
}

type badgeView struct {
	Count int    `json:"count"`
	Label string `json:"label,omitempty"`
}

type roomsResponse struct {
	Rooms []roomView `json:"rooms"`
	Badge badgeView  `json:"badge"`
}

func (h *Handler) newRoomView(sub domain.Subscription) roomView {
	return roomView{
		RoomId:             sub.RoomId,
		Title:              sub.Title(h.settings.UseRealName, false),
		Type:               sub.Type,
		Unread:             service.UnreadLabel(sub.Unread),
		Alert:              sub.Alert,
		ThreadsSynced:      sub.Synced(),
		AccessibilityLabel: service.RoomAccessibilityLabel(sub, h.settings.UseRealName, ""),
	}
}

// ListRooms lists the locally known rooms with the unread badge.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubscriptions(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := roomsResponse{Rooms: make([]roomView, 0, len(subs))}
	for _, sub := range subs {
		resp.Rooms = append(resp.Rooms, h.newRoomView(sub))
	}
	resp.Badge.Count, resp.Badge.Label = service.UnreadBadge(subs)
	utils.WriteJSON(w, http.StatusOK, resp)
}
