package vod

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/onnwee/vod-chat/twitchapi"
)

// FetchFailure names why a window fetch failed. It is used as a log attribute
// and as the "reason" label on vodchat_windows_failed_total.
type FetchFailure string

const (
	FailureCanceled  FetchFailure = "canceled"
	FailureTimeout   FetchFailure = "timeout"
	FailureStatus    FetchFailure = "status"
	FailureDecode    FetchFailure = "decode"
	FailureTransport FetchFailure = "transport"
	FailureUnknown   FetchFailure = "unknown"
)

// ClassifyFetchError maps a GQLClient error onto a FetchFailure.
//
// Timeouts are checked before decode errors because a deadline hit while the
// body is streaming surfaces from the JSON decoder.
func ClassifyFetchError(err error) FetchFailure {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	var se *twitchapi.StatusError
	if errors.As(err, &se) {
		return FailureStatus
	}
	var de *twitchapi.DecodeError
	if errors.As(err, &de) {
		return FailureDecode
	}
	var ue *url.Error
	var oe *net.OpError
	if errors.As(err, &ue) || errors.As(err, &oe) {
		return FailureTransport
	}
	return FailureUnknown
}
