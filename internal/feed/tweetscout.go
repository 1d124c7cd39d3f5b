// internal/feed/tweetscout.go

package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

const (
	DefaultTweetScoutURL = "https://api.tweetscout.io/v2"
	requestTimeout       = 10 * time.Second
)

type handleToIDResponse struct {
	ID string `json:"id"`
}

type userTweetsRequest struct {
	Link   string `json:"link"`
	UserID string `json:"user_id"`
}

type userTweetsResponse struct {
	Tweets []tweet `json:"tweets"`
}

type tweet struct {
	ID       string `json:"id_str"`
	FullText string `json:"full_text"`
}

// TweetScout reads tweets through the tweetscout.io API.
type TweetScout struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger

	// handle -> user id; ids never change for a handle
	mu    sync.RWMutex
	users map[string]string
}

// NewTweetScout creates a client. An empty baseURL selects the public API.
func NewTweetScout(baseURL, apiKey string, logger *zap.Logger) *TweetScout {
	if baseURL == "" {
		baseURL = DefaultTweetScoutURL
	}
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = requestTimeout

	return &TweetScout{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.Named("tweetscout"),
		users:   make(map[string]string),
	}
}

// ResolveUser maps a handle to its numeric user id.
func (c *TweetScout) ResolveUser(ctx context.Context, handle string) (string, error) {
	c.mu.RLock()
	id, ok := c.users[handle]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	endpoint := fmt.Sprintf("%s/handle-to-id/%s", c.baseURL, url.PathEscape(handle))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	var resp handleToIDResponse
	if err := c.do(req, &resp); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return "", fmt.Errorf("%s: %w", handle, ErrUserNotFound)
		}
		return "", fmt.Errorf("failed to resolve %s: %w", handle, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%s: %w", handle, ErrUserNotFound)
	}

	c.mu.Lock()
	c.users[handle] = resp.ID
	c.mu.Unlock()

	c.logger.Debug("Resolved handle", zap.String("handle", handle), zap.String("user_id", resp.ID))
	return resp.ID, nil
}

// LatestPosts fetches the newest tweets of a user.
func (c *TweetScout) LatestPosts(ctx context.Context, handle, userID string, count int) ([]string, error) {
	body, err := json.Marshal(userTweetsRequest{
		Link:   "https://twitter.com/" + handle,
		UserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/user-tweets", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp userTweetsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch tweets of %s: %w", handle, err)
	}

	texts := make([]string, 0, len(resp.Tweets))
	for _, t := range resp.Tweets {
		if count > 0 && len(texts) == count {
			break
		}
		texts = append(texts, t.FullText)
	}
	return texts, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == code
}

func (c *TweetScout) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("ApiKey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
