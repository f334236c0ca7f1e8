package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/itchan-dev/roomkit/shared/domain"
	"github.com/itchan-dev/roomkit/shared/utils"
)

type threadsListResponse struct {
	envelope
	Threads []domain.ThreadSummary `json:"threads"`
	Count   int                    `json:"count"`
	Offset  int                    `json:"offset"`
	Total   int                    `json:"total"`
}

type removedThread struct {
	Id domain.ThreadId `json:"_id"`
}

type threadsSyncResponse struct {
	envelope
	Threads struct {
		Update []domain.ThreadSummary `json:"update"`
		Remove []removedThread        `json:"remove"`
	} `json:"threads"`
}

type messageResponse struct {
	envelope
	Message domain.ThreadSummary `json:"message"`
}

// ListThreads fetches one page of the thread list of a room. The page count
// is what the server sent, before invalid summaries are dropped.
func (c *APIClient) ListThreads(ctx context.Context, rid domain.RoomId, count, offset int) (domain.ThreadPage, error) {
	const path = "/api/v1/chat.getThreadsList"
	query := url.Values{
		"rid":    {rid},
		"count":  {strconv.Itoa(count)},
		"offset": {strconv.Itoa(offset)},
	}

	var resp threadsListResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return domain.ThreadPage{}, err
	}
	if err := resp.check(path); err != nil {
		return domain.ThreadPage{}, err
	}

	sent := len(resp.Threads)
	if resp.Count > sent {
		sent = resp.Count
	}
	return domain.ThreadPage{Threads: c.valid(rid, resp.Threads), Count: sent}, nil
}

// SyncThreads fetches the threads changed or removed since the given time.
func (c *APIClient) SyncThreads(ctx context.Context, rid domain.RoomId, since time.Time) ([]domain.ThreadSummary, []domain.ThreadId, error) {
	const path = "/api/v1/chat.syncThreadsList"
	query := url.Values{
		"rid":          {rid},
		"updatedSince": {since.UTC().Format(time.RFC3339Nano)},
	}

	var resp threadsSyncResponse
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, nil, err
	}
	if err := resp.check(path); err != nil {
		return nil, nil, err
	}

	remove := make([]domain.ThreadId, 0, len(resp.Threads.Remove))
	for _, r := range resp.Threads.Remove {
		if r.Id != "" {
			remove = append(remove, r.Id)
		}
	}
	return c.valid(rid, resp.Threads.Update), remove, nil
}

// GetSingleMessage fetches one message by id.
func (c *APIClient) GetSingleMessage(ctx context.Context, id domain.ThreadId) (domain.ThreadSummary, error) {
	const path = "/api/v1/chat.getMessage"

	var resp messageResponse
	if err := c.getJSON(ctx, path, url.Values{"msgId": {id}}, &resp); err != nil {
		return domain.ThreadSummary{}, err
	}
	if err := resp.check(path); err != nil {
		return domain.ThreadSummary{}, err
	}
	if err := utils.Validate(resp.Message); err != nil {
		return domain.ThreadSummary{}, errInvalidPayload(path, err)
	}
	return resp.Message, nil
}

// valid drops summaries the server sent without the fields a local record
// needs.
func (c *APIClient) valid(rid domain.RoomId, threads []domain.ThreadSummary) []domain.ThreadSummary {
	out := threads[:0]
	for _, th := range threads {
		if err := utils.Validate(th); err != nil {
			c.log.Warn("dropping invalid thread summary", "room_id", rid, "thread_id", th.Id, "error", err)
			continue
		}
		out = append(out, th)
	}
	return out
}
