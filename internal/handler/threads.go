package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/roomkit/internal/markdown"
	"github.com/itchan-dev/roomkit/internal/service"
	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/itchan-dev/roomkit/shared/utils"
)

const previewLines = 2

type threadView struct {
	Id        domain.ThreadId `json:"id"`
	Author    string          `json:"author"`
	Preview   string          `json:"preview"`
	HTML      string          `json:"html"`
	Time      string          `json:"time"`
	Replies   int             `json:"replies"`
	LastReply string          `json:"lastReply,omitempty"`
	Draft     string          `json:"draft,omitempty"`
}

type threadsResponse struct {
	Room    roomView     `json:"room"`
	Threads []threadView `json:"threads"`
	End     bool         `json:"end"`
}

func (h *Handler) newThreadView(rec domain.ThreadRecord) threadView {
	now := h.now()
	view := threadView{
		Id:      rec.Id,
		Author:  rec.Author.DisplayName(h.settings.UseRealName, rec.Alias),
		Time:    service.FormatThreadTimestamp(rec.Ts, now),
		Replies: rec.Tcount,
		Draft:   rec.DraftMessage,
	}
	if rec.Tlm != nil {
		view.LastReply = service.FormatThreadTimestamp(*rec.Tlm, now)
	}

	opts := h.options(markdown.Options{
		RenderContext: markdown.RenderContext{Preview: true, NumberOfLines: previewLines},
		IsEdited:      rec.IsEdited(),
	})
	if out := markdown.RenderMessage(rec.Title(), opts); out != nil {
		view.Preview = out.PlainText()
		view.HTML = out.HTML()
	}
	return view
}

// ListThreads answers from the local store only.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	sub, err := h.store.GetSubscription(r.Context(), rid)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	records, err := h.store.ListThreads(r.Context(), sub.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := threadsResponse{
		Room:    h.newRoomView(sub),
		Threads: make([]threadView, 0, len(records)),
		End:     h.threads.End(rid),
	}
	for _, rec := range records {
		resp.Threads = append(resp.Threads, h.newThreadView(rec))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// SyncThreads runs the initial load for a room never synced here and a
// delta sync otherwise.
func (h *Handler) SyncThreads(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	if _, err := service.EnsureSubscription(r.Context(), h.store, h.remote, rid); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	res, err := h.threads.Init(r.Context(), rid)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) LoadMoreThreads(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	res, err := h.threads.LoadMore(r.Context(), rid)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

type threadNameResponse struct {
	Name string `json:"name"`
}

func (h *Handler) ThreadName(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	tmid := chi.URLParam(r, "tmid")
	name, err := service.ResolveThreadName(r.Context(), h.store, h.remote, rid, tmid)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, threadNameResponse{Name: name})
}
