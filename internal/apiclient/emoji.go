package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/itchan-dev/roomkit/shared/domain"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
	"github.com/itchan-dev/roomkit/shared/utils"
)

type customEmojiResponse struct {
	envelope
	Emojis struct {
		Update []domain.CustomEmoji `json:"update"`
	} `json:"emojis"`
}

// ListCustomEmoji fetches the custom emoji of the server.
func (c *APIClient) ListCustomEmoji(ctx context.Context) ([]domain.CustomEmoji, error) {
	const path = "/api/v1/emoji-custom.list"

	var resp customEmojiResponse
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.check(path); err != nil {
		return nil, err
	}
	out := make([]domain.CustomEmoji, 0, len(resp.Emojis.Update))
	for _, e := range resp.Emojis.Update {
		if err := utils.Validate(e); err != nil {
			c.log.Warn("dropping invalid custom emoji", "name", e.Name, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func errInvalidPayload(path string, err error) error {
	return &internal_errors.ErrorWithStatusCode{
		Message:    fmt.Sprintf("%s: invalid payload: %v", path, err),
		StatusCode: http.StatusBadGateway,
	}
}

func errNotSubscribed(rid domain.RoomId) error {
	return &internal_errors.ErrorWithStatusCode{
		Message:    fmt.Sprintf("not subscribed to room %s", rid),
		StatusCode: http.StatusNotFound,
	}
}
