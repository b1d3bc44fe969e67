package vod

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/onnwee/vod-chat/twitchapi"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyFetchError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FetchFailure
	}{
		{"nil", nil, ""},
		{"canceled", fmt.Errorf("do: %w", context.Canceled), FailureCanceled},
		{"deadline", &url.Error{Op: "Post", URL: "x", Err: context.DeadlineExceeded}, FailureTimeout},
		{"net timeout", &url.Error{Op: "Post", URL: "x", Err: timeoutErr{}}, FailureTimeout},
		{"deadline while decoding", &twitchapi.DecodeError{Err: context.DeadlineExceeded}, FailureTimeout},
		{"status", &twitchapi.StatusError{Code: 502, Body: "bad gateway"}, FailureStatus},
		{"decode", &twitchapi.DecodeError{Err: errors.New("unexpected EOF")}, FailureDecode},
		{"connection refused", &url.Error{Op: "Post", URL: "x", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}, FailureTransport},
		{"bare op error", &net.OpError{Op: "read", Err: errors.New("reset")}, FailureTransport},
		{"other", errors.New("something else"), FailureUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyFetchError(tt.err); got != tt.want {
				t.Errorf("ClassifyFetchError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
