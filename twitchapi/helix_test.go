package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestHelixClient_GetVideo(t *testing.T) {
	tests := []struct {
		response    interface{}
		name        string
		id          string
		wantDur     string
		errContains string
		statusCode  int
		wantErr     bool
	}{
		{
			name: "found",
			id:   "2677280693",
			response: map[string]interface{}{
				"data": []map[string]string{
					{"id": "2677280693", "title": "Stream", "duration": "2h44m47s", "created_at": "2024-01-01T10:00:00Z"},
				},
			},
			statusCode: http.StatusOK,
			wantDur:    "2h44m47s",
		},
		{
			name:        "not found",
			id:          "404",
			response:    map[string]interface{}{"data": []map[string]string{}},
			statusCode:  http.StatusOK,
			wantErr:     true,
			errContains: "not found",
		},
		{
			name:        "unauthorized",
			id:          "1",
			response:    map[string]string{"message": "invalid token"},
			statusCode:  http.StatusUnauthorized,
			wantErr:     true,
			errContains: "status 401",
		},
		{
			name:        "empty id",
			id:          "",
			wantErr:     true,
			errContains: "video id empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/helix/videos" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.Header.Get("Client-Id") != "test-client-id" {
					t.Errorf("missing or wrong Client-Id header")
				}
				if r.Header.Get("Authorization") != "Bearer test-token" {
					t.Errorf("missing or wrong Authorization header")
				}
				if r.URL.Query().Get("id") != tt.id {
					t.Errorf("id query param = %s, want %s", r.URL.Query().Get("id"), tt.id)
				}
				w.WriteHeader(tt.statusCode)
				if tt.response != nil {
					_ = json.NewEncoder(w).Encode(tt.response)
				}
			}))
			defer server.Close()

			client := &HelixClient{
				BaseURL:  server.URL + "/helix/",
				ClientID: "test-client-id",
				Tokens:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
			}

			meta, err := client.GetVideo(context.Background(), tt.id)
			if tt.wantErr {
				if err == nil {
					t.Errorf("GetVideo() error = nil, want error containing %q", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("GetVideo() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetVideo() unexpected error = %v", err)
			}
			if meta.Duration != tt.wantDur {
				t.Errorf("Duration = %s, want %s", meta.Duration, tt.wantDur)
			}
			if meta.ID != tt.id {
				t.Errorf("ID = %s, want %s", meta.ID, tt.id)
			}
		})
	}
}

func TestHelixClient_NoTokenSource(t *testing.T) {
	hc := &HelixClient{ClientID: "x"}
	if _, err := hc.GetVideo(context.Background(), "1"); err == nil {
		t.Error("expected error without token source")
	}
}
