// Package meta publishes image posts through the Meta Graph API:
// single and multi-image posts on a Facebook Page, single and carousel
// posts on an Instagram Business account. Instagram media go through
// server-side containers that must finish processing before they can
// be published, so carousel posting is a create → poll → publish state
// machine.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the versioned Graph API root.
const DefaultBaseURL = "https://graph.facebook.com/v22.0"

const (
	requestTimeout      = 30 * time.Second
	defaultPollInterval = time.Second
	defaultPollAttempts = 30
)

// PostResult identifies a published post. Facebook photo posts return
// both a photo id and a post_id; Instagram publishes return just id.
type PostResult struct {
	ID     string `json:"id"`
	PostID string `json:"post_id,omitempty"`
}

// Client talks to the Graph API for one Page + Instagram account pair.
// BaseURL, PollInterval and PollAttempts have sensible defaults and
// exist as fields so tests can point the client at a fake server with
// a fast poll cycle.
type Client struct {
	BaseURL      string
	PollInterval time.Duration
	PollAttempts int

	pageID   string
	igUserID string
	token    string
	client   *http.Client
	logger   *slog.Logger

	closeOnce sync.Once
}

// NewClient returns a Client sharing one bounded-timeout HTTP client
// across every call it makes.
func NewClient(pageID, igUserID, token string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:      DefaultBaseURL,
		PollInterval: defaultPollInterval,
		PollAttempts: defaultPollAttempts,
		pageID:       pageID,
		igUserID:     igUserID,
		token:        token,
		client:       &http.Client{Timeout: requestTimeout},
		logger:       logger,
	}
}

// api issues one Graph API call. The access token rides as a request
// parameter, per the Graph API convention. Non-success responses are
// logged with the full body before the error is returned.
func (c *Client) api(ctx context.Context, method, endpoint string, params url.Values) (map[string]any, error) {
	params.Set("access_token", c.token)

	var req *http.Request
	var err error
	fullURL := c.BaseURL + "/" + endpoint
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, fullURL+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, fullURL, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Meta API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Meta API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Meta API call failed",
			"method", method, "endpoint", endpoint,
			"status", resp.StatusCode, "body", string(body))
		return nil, &APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode Meta API response: %w", err)
	}
	return result, nil
}

// PostFacebook posts to the Facebook Page: one atomic photo post for a
// single image, or unpublished photo attachments assembled into one
// feed post for several. Any attachment failure aborts the whole post.
func (c *Client) PostFacebook(ctx context.Context, imageURLs []string, message string) (*PostResult, error) {
	if len(imageURLs) == 1 {
		result, err := c.api(ctx, http.MethodPost, c.pageID+"/photos", url.Values{
			"url":     {imageURLs[0]},
			"message": {message},
		})
		if err != nil {
			return nil, err
		}
		return postResult(result), nil
	}

	photoIDs := make([]string, 0, len(imageURLs))
	for _, imageURL := range imageURLs {
		result, err := c.api(ctx, http.MethodPost, c.pageID+"/photos", url.Values{
			"url":       {imageURL},
			"published": {"false"},
		})
		if err != nil {
			return nil, err
		}
		photoIDs = append(photoIDs, stringField(result, "id"))
	}

	params := url.Values{"message": {message}}
	for i, pid := range photoIDs {
		params.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":"%s"}`, pid))
	}

	result, err := c.api(ctx, http.MethodPost, c.pageID+"/feed", params)
	if err != nil {
		return nil, err
	}
	return postResult(result), nil
}

// PostInstagram posts to the Instagram account. A single image is one
// container create → poll → publish. Several images become carousel
// child containers which must each finish processing before the parent
// CAROUSEL container is created, polled and published. A child that
// errors or times out aborts before the parent ever exists.
func (c *Client) PostInstagram(ctx context.Context, imageURLs []string, caption string) (*PostResult, error) {
	if len(imageURLs) == 1 {
		result, err := c.api(ctx, http.MethodPost, c.igUserID+"/media", url.Values{
			"image_url": {imageURLs[0]},
			"caption":   {caption},
		})
		if err != nil {
			return nil, err
		}
		containerID := stringField(result, "id")
		if err := c.waitForContainer(ctx, containerID); err != nil {
			return nil, err
		}
		return c.publishContainer(ctx, containerID)
	}

	children := make([]string, 0, len(imageURLs))
	for _, imageURL := range imageURLs {
		result, err := c.api(ctx, http.MethodPost, c.igUserID+"/media", url.Values{
			"image_url":        {imageURL},
			"is_carousel_item": {"true"},
		})
		if err != nil {
			return nil, err
		}
		children = append(children, stringField(result, "id"))
	}

	for _, childID := range children {
		if err := c.waitForContainer(ctx, childID); err != nil {
			return nil, err
		}
	}

	result, err := c.api(ctx, http.MethodPost, c.igUserID+"/media", url.Values{
		"media_type": {"CAROUSEL"},
		"children":   {strings.Join(children, ",")},
		"caption":    {caption},
	})
	if err != nil {
		return nil, err
	}
	parentID := stringField(result, "id")
	if err := c.waitForContainer(ctx, parentID); err != nil {
		return nil, err
	}
	return c.publishContainer(ctx, parentID)
}

func (c *Client) publishContainer(ctx context.Context, containerID string) (*PostResult, error) {
	result, err := c.api(ctx, http.MethodPost, c.igUserID+"/media_publish", url.Values{
		"creation_id": {containerID},
	})
	if err != nil {
		return nil, err
	}
	return postResult(result), nil
}

// waitForContainer polls a container's status once per PollInterval
// until it reaches FINISHED, fails with ERROR, or exhausts the attempt
// budget. It never returns success for any non-FINISHED status and
// never keeps polling past ERROR.
func (c *Client) waitForContainer(ctx context.Context, containerID string) error {
	for attempt := 0; attempt < c.PollAttempts; attempt++ {
		result, err := c.api(ctx, http.MethodGet, containerID, url.Values{
			"fields": {"status_code"},
		})
		if err != nil {
			return err
		}

		switch stringField(result, "status_code") {
		case "FINISHED":
			return nil
		case "ERROR":
			body, _ := json.Marshal(result)
			return &ContainerError{ContainerID: containerID, Body: string(body)}
		}

		select {
		case <-time.After(c.PollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return &ContainerTimeoutError{ContainerID: containerID, Attempts: c.PollAttempts}
}

// Close releases the shared HTTP client. Safe to call exactly once per
// client; deferred Close in callers keeps it running even when a
// publish fails partway.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.client.CloseIdleConnections()
	})
}

func postResult(m map[string]any) *PostResult {
	return &PostResult{
		ID:     stringField(m, "id"),
		PostID: stringField(m, "post_id"),
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
