package handler

import (
	"net/http"

	"github.com/itchan-dev/roomkit/internal/markdown"
	"github.com/itchan-dev/roomkit/shared/utils"
)

type renderRequest struct {
	Msg string `json:"msg" validate:"required"`
	markdown.Options
	ChannelNames []string `json:"channels,omitempty"`
	MentionNames []string `json:"mentions,omitempty"`
}

type renderResponse struct {
	Root      *markdown.Unit `json:"root"`
	HTML      string         `json:"html"`
	Text      string         `json:"text"`
	OnlyEmoji bool           `json:"onlyEmoji"`
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var body renderRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	opts := body.Options
	opts.Channels = markdown.NewNames(body.ChannelNames...)
	opts.Mentions = markdown.NewNames(body.MentionNames...)
	if !h.settings.UseMarkdown {
		opts.DisableMarkdown = true
	}
	out := markdown.RenderMessage(body.Msg, h.options(opts))

	utils.WriteJSON(w, http.StatusOK, renderResponse{
		Root:      out.Root(),
		HTML:      out.HTML(),
		Text:      out.PlainText(),
		OnlyEmoji: out.Context().OnlyEmoji,
	})
}

// options fills the server dependent parts of a render context.
func (h *Handler) options(opts markdown.Options) markdown.Options {
	if opts.BaseURL == "" {
		opts.BaseURL = h.settings.BaseURL
	}
	if opts.CustomEmoji == nil {
		opts.CustomEmoji = h.emoji
	}
	return opts
}
