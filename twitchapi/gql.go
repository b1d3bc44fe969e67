// Package twitchapi contains minimal clients for the Twitch endpoints the fetcher
// talks to: the internal GraphQL API used by the web player for chat replay, and
// Helix for VOD metadata.
package twitchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// commentsQuery asks for the first page (at most 100 edges) of chat replay
// comments starting at a content offset.
const commentsQuery = `query($v:ID!,$o:Int!){
    video(id:$v){
        comments(contentOffsetSeconds:$o,first:100){
            edges{node{contentOffsetSeconds commenter{displayName}message{fragments{text emote{emoteID}}}}}
            pageInfo{hasNextPage}
        }
    }
}`

// StatusError is returned when the GQL endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gql status %d: %s", e.Code, e.Body)
}

// DecodeError wraps a failure to decode the GQL response body.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode gql response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// GQLClient fetches chat replay pages. The zero value is not usable; use NewGQLClient.
type GQLClient struct {
	URL        string
	ClientID   string
	HTTPClient *http.Client
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration
	// Limiter spaces requests when non-nil.
	Limiter *rate.Limiter
}

// NewGQLClient returns a client for url. interval > 0 enables request pacing.
func NewGQLClient(url, clientID string, timeout, interval time.Duration) *GQLClient {
	c := &GQLClient{URL: url, ClientID: clientID, Timeout: timeout}
	if interval > 0 {
		c.Limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return c
}

func (c *GQLClient) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// VideoComments requests the comments of videoID beginning at offset seconds.
// It performs a single request and never retries. The decoded response is
// returned as-is; callers navigate it through CommentsResponse.Edges.
func (c *GQLClient) VideoComments(ctx context.Context, videoID string, offset int) (*CommentsResponse, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(gqlRequest{
		Query:     commentsQuery,
		Variables: map[string]any{"v": videoID, "o": offset},
	})
	if err != nil {
		return nil, fmt.Errorf("encode gql request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-ID", c.ClientID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	var out CommentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &out, nil
}
