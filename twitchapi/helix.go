package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// HelixClient looks up VOD metadata with an app access token.
type HelixClient struct {
	// BaseURL defaults to https://api.twitch.tv/helix.
	BaseURL    string
	ClientID   string
	Tokens     oauth2.TokenSource
	HTTPClient *http.Client
}

// VideoMeta is the subset of a Helix video the fetcher uses. Duration is in
// Twitch's "3h15m42s" form.
type VideoMeta struct{ ID, Title, Duration, CreatedAt string }

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) baseURL() string {
	if hc.BaseURL != "" {
		return strings.TrimRight(hc.BaseURL, "/")
	}
	return "https://api.twitch.tv/helix"
}

// GetVideo fetches metadata for a single VOD id.
func (hc *HelixClient) GetVideo(ctx context.Context, id string) (*VideoMeta, error) {
	if id == "" {
		return nil, fmt.Errorf("video id empty")
	}
	if hc.Tokens == nil {
		return nil, fmt.Errorf("helix token source not configured")
	}
	tok, err := hc.Tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("app token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.baseURL()+"/videos", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("id", id)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := hc.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("helix videos status %d: %s", resp.StatusCode, string(b))
	}
	var body struct {
		Data []struct {
			ID, Title, Duration string
			CreatedAt           string `json:"created_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("video %s not found", id)
	}
	v := body.Data[0]
	return &VideoMeta{ID: v.ID, Title: v.Title, Duration: v.Duration, CreatedAt: v.CreatedAt}, nil
}
