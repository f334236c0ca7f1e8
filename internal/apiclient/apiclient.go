package apiclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/itchan-dev/roomkit/shared/config"
	internal_errors "github.com/itchan-dev/roomkit/shared/errors"
	"github.com/itchan-dev/roomkit/shared/logger"
	"github.com/itchan-dev/roomkit/shared/utils"
	"golang.org/x/time/rate"
)

// APIClient talks to the REST API of the chat server.
type APIClient struct {
	BaseURL    string
	HttpClient *http.Client

	userID  string
	token   string
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a client for the server at baseURL. Requests are spaced to at
// most rps per second.
func New(baseURL, userID, token string, rps float64, timeout time.Duration) *APIClient {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &APIClient{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HttpClient: &http.Client{Timeout: timeout},
		userID:     userID,
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		log:        logger.Component("apiclient"),
	}
}

func NewFromConfig(cfg *config.Config) *APIClient {
	return New(cfg.Public.Server, cfg.Private.UserID, cfg.Private.AuthToken,
		cfg.Public.RequestsPerSecond, cfg.Public.RequestTimeout)
}

// do is the single helper every request goes through.
func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create API request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userID != "" {
		req.Header.Set("X-User-Id", c.userID)
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server unavailable: %w", err)
	}
	return resp, nil
}

// getJSON performs a GET and decodes a successful answer into out.
func (c *APIClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("api request failed", "path", path, "status", resp.StatusCode)
		return &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("%s: %s", path, strings.TrimSpace(string(msg))),
			StatusCode: resp.StatusCode,
		}
	}
	if err := utils.Decode(resp.Body, out); err != nil {
		return errInvalidPayload(path, err)
	}
	return nil
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (e envelope) check(path string) error {
	if e.Success {
		return nil
	}
	msg := e.Error
	if msg == "" {
		msg = "request was not successful"
	}
	return &internal_errors.ErrorWithStatusCode{Message: path + ": " + msg, StatusCode: http.StatusBadGateway}
}
