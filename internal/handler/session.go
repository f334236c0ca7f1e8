package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/roomkit/internal/service"
	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
	"github.com/itchan-dev/roomkit/shared/utils"
)

var errNoSession = &internal_errors.ErrorWithStatusCode{Message: "room is not open", StatusCode: http.StatusNotFound}

type sessionResponse struct {
	Room    roomView `json:"room"`
	Threads int      `json:"threads"`
	Draft   string   `json:"draft"`
	End     bool     `json:"end"`
}

type draftRequest struct {
	Text string `json:"text"`
}

func sessionKey(rid domain.RoomId, tmid domain.ThreadId) string {
	return rid + "/" + tmid
}

func (h *Handler) session(rid domain.RoomId, tmid domain.ThreadId) (*service.RoomSession, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[sessionKey(rid, tmid)]
	return s, ok
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, s *service.RoomSession) {
	utils.WriteJSON(w, status, sessionResponse{
		Room:    h.newRoomView(s.Subscription()),
		Threads: len(s.Threads()),
		Draft:   s.Draft(),
		End:     s.End(),
	})
}

// OpenRoom opens a room, or a thread of it when ?tmid is set. An already
// open session for the same target is closed first.
func (h *Handler) OpenRoom(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	tmid := r.URL.Query().Get("tmid")
	if _, err := service.EnsureSubscription(r.Context(), h.store, h.remote, rid); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	s := service.NewRoomSession(rid, tmid, h.store, h.threads)
	key := sessionKey(rid, tmid)
	h.mu.Lock()
	prev := h.sessions[key]
	h.sessions[key] = s
	h.mu.Unlock()
	if prev != nil {
		if err := prev.Close(r.Context()); err != nil {
			h.log.Warn("failed to close previous session", "room_id", rid, "error", err)
		}
	}

	if err := s.Open(r.Context()); err != nil {
		if cerr := s.Close(r.Context()); cerr != nil {
			h.log.Warn("failed to close session after failed open", "room_id", rid, "error", cerr)
		}
		h.mu.Lock()
		if h.sessions[key] == s {
			delete(h.sessions, key)
		}
		h.mu.Unlock()
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, s)
}

func (h *Handler) RoomSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(chi.URLParam(r, "rid"), r.URL.Query().Get("tmid"))
	if !ok {
		utils.WriteErrorAndStatusCode(w, errNoSession)
		return
	}
	h.writeSession(w, http.StatusOK, s)
}

func (h *Handler) SetDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(chi.URLParam(r, "rid"), r.URL.Query().Get("tmid"))
	if !ok {
		utils.WriteErrorAndStatusCode(w, errNoSession)
		return
	}
	var body draftRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	s.SetDraft(body.Text)
	w.WriteHeader(http.StatusNoContent)
}

// CloseRoom closes the session, persisting its draft.
func (h *Handler) CloseRoom(w http.ResponseWriter, r *http.Request) {
	key := sessionKey(chi.URLParam(r, "rid"), r.URL.Query().Get("tmid"))
	h.mu.Lock()
	s, ok := h.sessions[key]
	delete(h.sessions, key)
	h.mu.Unlock()
	if !ok {
		utils.WriteErrorAndStatusCode(w, errNoSession)
		return
	}
	if err := s.Close(r.Context()); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Close closes every open session. Called on shutdown.
func (h *Handler) Close(ctx context.Context) error {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*service.RoomSession)
	h.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.Close(ctx))
	}
	return errors.Join(errs...)
}
