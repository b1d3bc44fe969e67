package vod

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/vod-chat/chat"
	"github.com/onnwee/vod-chat/telemetry"
	"github.com/onnwee/vod-chat/twitchapi"
)

// CommentFetcher fetches one chat replay window. *twitchapi.GQLClient implements it.
type CommentFetcher interface {
	VideoComments(ctx context.Context, videoID string, offset int) (*twitchapi.CommentsResponse, error)
}

// ImportOptions tunes ImportChat. Zero values pick the defaults.
type ImportOptions struct {
	Stride int
	// ProgressEvery logs progress after this many windows (default 10) and
	// always after the last one.
	ProgressEvery int
	Logger        *slog.Logger
}

// ImportResult is the outcome of one ImportChat run.
type ImportResult struct {
	Transcript *chat.Transcript
	Windows    int
	Failed     int
}

// ImportChat walks the VOD in fixed windows, one GQL request at a time and in
// offset order, and merges every window into a single transcript.
//
// A failed window is logged and skipped; the run goes on and the transcript
// simply has a gap there. Only cancellation of ctx aborts the run, in which
// case no transcript is returned.
func ImportChat(ctx context.Context, f CommentFetcher, videoID string, duration int, opts ImportOptions) (*ImportResult, error) {
	telemetry.Init()
	every := opts.ProgressEvery
	if every <= 0 {
		every = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.LoggerWithCorr(ctx)
	}
	logger = logger.With(slog.String("component", "vod_chat_import"), slog.String("vod_id", videoID))

	offsets := PlanWindows(duration, opts.Stride)
	ctx, span := telemetry.StartSpan(ctx, "vod.ImportChat",
		attribute.String("vod_id", videoID),
		attribute.Int("duration_seconds", duration),
		attribute.Int("windows", len(offsets)),
	)
	defer span.End()

	logger.Info("downloading chat", slog.Int("windows", len(offsets)), slog.Int("duration_seconds", duration))
	start := time.Now()

	merger := chat.NewMerger()
	res := &ImportResult{Windows: len(offsets)}
	for i, offset := range offsets {
		if err := ctx.Err(); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := importWindow(ctx, f, merger, logger, videoID, offset); err != nil {
			if ctx.Err() != nil {
				telemetry.RecordError(span, ctx.Err())
				return nil, ctx.Err()
			}
			res.Failed++
		}
		if (i+1)%every == 0 || i == len(offsets)-1 {
			logger.Info("progress",
				slog.String("windows", fmt.Sprintf("%d/%d", i+1, len(offsets))),
				slog.Int("messages", merger.Len()))
		}
	}

	res.Transcript = merger.Transcript(videoID, duration)
	elapsed := time.Since(start)
	telemetry.RunDuration.Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("messages", len(res.Transcript.Comments)), attribute.Int("failed_windows", res.Failed))
	telemetry.SetSpanSuccess(span)
	logger.Info("chat import finished",
		slog.Int("messages", len(res.Transcript.Comments)),
		slog.Int("failed_windows", res.Failed),
		slog.Duration("elapsed", elapsed))
	return res, nil
}

// importWindow fetches and merges a single window. The returned error is only
// informational: it has already been logged and counted.
func importWindow(ctx context.Context, f CommentFetcher, merger *chat.Merger, logger *slog.Logger, videoID string, offset int) error {
	ctx, span := telemetry.StartSpan(ctx, "vod.importWindow", attribute.Int("offset", offset))
	defer span.End()

	var (
		resp *twitchapi.CommentsResponse
		err  error
	)
	telemetry.TimeFunc(telemetry.FetchDuration, func() {
		resp, err = f.VideoComments(ctx, videoID, offset)
	})
	if err != nil {
		reason := ClassifyFetchError(err)
		telemetry.RecordError(span, err)
		telemetry.WindowsFailed.WithLabelValues(string(reason)).Inc()
		logger.Warn("fetch chat window failed",
			slog.Int("offset", offset),
			slog.String("reason", string(reason)),
			slog.Any("err", err))
		return err
	}
	telemetry.WindowsFetched.Inc()

	for _, e := range resp.Errors {
		logger.Debug("gql error in response", slog.Int("offset", offset), slog.String("message", e.Message))
	}
	edges, absent := resp.Edges()
	if absent != twitchapi.AbsentNone {
		telemetry.WindowsEmpty.WithLabelValues(absent.String()).Inc()
		logger.Debug("window has no comments", slog.Int("offset", offset), slog.String("absent", absent.String()))
		return nil
	}
	added := merger.Add(resp)
	telemetry.CommentsCollected.Add(float64(added))
	telemetry.DuplicatesSkipped.Add(float64(len(edges) - added))
	span.SetAttributes(attribute.Int("edges", len(edges)), attribute.Int("added", added))

	// Only the first page of each window is fetched; make the gap visible.
	if resp.HasNextPage() {
		telemetry.WindowsTruncated.Inc()
		logger.Debug("window has more comments than one page", slog.Int("offset", offset), slog.Int("edges", len(edges)))
	}
	return nil
}
