package apiclient

import (
	"context"
	"net/url"

	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/itchan-dev/roomkit/shared/utils"
)

type subscriptionResponse struct {
	envelope
	Subscription *domain.Subscription `json:"subscription"`
}

// GetSubscription fetches the subscription of the logged user to a room.
func (c *APIClient) GetSubscription(ctx context.Context, rid domain.RoomId) (domain.Subscription, error) {
	const path = "/api/v1/subscriptions.getOne"

	var resp subscriptionResponse
	if err := c.getJSON(ctx, path, url.Values{"roomId": {rid}}, &resp); err != nil {
		return domain.Subscription{}, err
	}
	if err := resp.check(path); err != nil {
		return domain.Subscription{}, err
	}
	if resp.Subscription == nil {
		return domain.Subscription{}, errNotSubscribed(rid)
	}
	if err := utils.Validate(resp.Subscription); err != nil {
		return domain.Subscription{}, errInvalidPayload(path, err)
	}
	sub := *resp.Subscription
	// local only
	sub.LastThreadSync = nil
	sub.DraftMessage = ""
	return sub, nil
}
