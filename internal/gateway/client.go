package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"shortfeed/pkg/types"
)

// Client talks to the backend REST API. The engine owns one Client and treats
// it as a black box: transport failures map to ErrNetwork, non-2xx responses
// to *ServerError, and mutation routes additionally tag ErrLikeFailed /
// ErrCommentFailed so callers can match the failure class independently.
type Client struct {
	BaseURL string // e.g. http://localhost:8000/api
	Token   func() string // bearer token supplier; nil when unauthenticated
	HTTP    *http.Client
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("bad base url %q: %v", c.BaseURL, err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != nil {
		if t := c.Token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return netErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// FastAPI-style error body: {"detail": "..."}
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&e)
		return &ServerError{Status: resp.StatusCode, Message: e.Detail}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return netErr(err)
		}
	}
	return nil
}

// Feed fetches one feed page. The cursor is an opaque continuation token;
// the backend currently serves the whole feed in one page and returns no
// next cursor.
func (c *Client) Feed(ctx context.Context, cursor string) ([]types.VideoRecord, string, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var videos []types.VideoRecord
	if err := c.do(ctx, http.MethodGet, "/videos/feed", q, nil, &videos); err != nil {
		return nil, "", err
	}
	return videos, "", nil
}

func (c *Client) Like(ctx context.Context, videoID string) error {
	if err := c.do(ctx, http.MethodPost, "/videos/"+url.PathEscape(videoID)+"/like", nil, nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrLikeFailed, err)
	}
	return nil
}

func (c *Client) Unlike(ctx context.Context, videoID string) error {
	if err := c.do(ctx, http.MethodDelete, "/videos/"+url.PathEscape(videoID)+"/like", nil, nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrLikeFailed, err)
	}
	return nil
}

func (c *Client) Comments(ctx context.Context, videoID string) ([]types.Comment, error) {
	var out []types.Comment
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(videoID)+"/comments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PostComment submits a comment and returns the server's canonical copy.
// An empty comment (no text, no image) is rejected locally and never sent.
func (c *Client) PostComment(ctx context.Context, videoID, text, image string) (types.Comment, error) {
	if strings.TrimSpace(text) == "" && image == "" {
		return types.Comment{}, fmt.Errorf("%w: empty comment", ErrValidation)
	}
	body := struct {
		Text  string `json:"text"`
		Image string `json:"image,omitempty"`
	}{Text: text, Image: image}
	var out types.Comment
	if err := c.do(ctx, http.MethodPost, "/videos/"+url.PathEscape(videoID)+"/comments", nil, body, &out); err != nil {
		return types.Comment{}, fmt.Errorf("%w: %w", ErrCommentFailed, err)
	}
	return out, nil
}

func (c *Client) LikeComment(ctx context.Context, commentID string) error {
	if err := c.do(ctx, http.MethodPost, "/comments/"+url.PathEscape(commentID)+"/like", nil, nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrLikeFailed, err)
	}
	return nil
}

func (c *Client) UnlikeComment(ctx context.Context, commentID string) error {
	if err := c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(commentID)+"/like", nil, nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrLikeFailed, err)
	}
	return nil
}

// RecordView reports one watch sample. No response body is expected.
func (c *Client) RecordView(ctx context.Context, videoID string, seconds float64) error {
	body := types.WatchEvent{VideoID: videoID, Duration: seconds}
	return c.do(ctx, http.MethodPost, "/videos/"+url.PathEscape(videoID)+"/view", nil, body, nil)
}

// --- search surface (external to the feed core, thin pass-throughs) ---

func (c *Client) Search(ctx context.Context, keyword, category string) (types.SearchResult, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	if category != "" {
		q.Set("category", category)
	}
	var out types.SearchResult
	if err := c.do(ctx, http.MethodGet, "/search", q, nil, &out); err != nil {
		return types.SearchResult{}, err
	}
	return out, nil
}

func (c *Client) SearchHistory(ctx context.Context) ([]types.SearchHistoryItem, error) {
	var out []types.SearchHistoryItem
	if err := c.do(ctx, http.MethodGet, "/search/history", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveSearchHistory(ctx context.Context, keyword string) error {
	q := url.Values{}
	q.Set("keyword", keyword)
	return c.do(ctx, http.MethodPost, "/search/history", q, nil, nil)
}

func (c *Client) DeleteSearchHistory(ctx context.Context, historyID string) error {
	return c.do(ctx, http.MethodDelete, "/search/history/"+url.PathEscape(historyID), nil, nil, nil)
}

func (c *Client) ClearSearchHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/search/history", nil, nil, nil)
}

func (c *Client) HotSearches(ctx context.Context) ([]types.HotSearch, error) {
	var out []types.HotSearch
	if err := c.do(ctx, http.MethodGet, "/search/hot", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
