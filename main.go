// Command vod-chat downloads the complete chat replay of a Twitch VOD and writes
// it as a plain text transcript.
//
//	vod-chat [flags] <video_id> <duration|auto>
//
// It walks the VOD in fixed windows against Twitch's GQL endpoint, merges the
// overlapping windows and writes chat_vod_<id>_full.txt into the output
// directory. With DB_DSN set the transcript is stored in Postgres or SQLite too.
// Progress goes to stderr; stdout is unused.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/onnwee/vod-chat/chat"
	"github.com/onnwee/vod-chat/config"
	"github.com/onnwee/vod-chat/db"
	"github.com/onnwee/vod-chat/telemetry"
	"github.com/onnwee/vod-chat/twitchapi"
	"github.com/onnwee/vod-chat/vod"
)

const (
	serviceName    = "vod-chat"
	serviceVersion = "1.0.0"
	usageLine      = "usage: vod-chat [flags] <video_id> <duration|auto>"
)

func main() {
	// Load .env file if present (local dev convenience only)
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run is main without the process exit, returning the exit status.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (default $CONFIG_FILE)")
	outDir := fs.String("out", "", "output directory (default $OUTPUT_DIR or /tmp)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fmt.Fprintln(stderr, "  duration is H:MM:SS or MM:SS, or auto to look it up through Helix")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 1
	}
	videoID, durationArg := fs.Arg(0), fs.Arg(1)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	slog.SetDefault(newLogger(stderr, cfg.LogLevel, cfg.LogFormat))

	// Format errors abort before any network activity.
	duration := -1
	if durationArg != "auto" {
		duration, err = vod.ParseDuration(durationArg)
		if err != nil {
			fmt.Fprintf(stderr, "invalid duration %q: %v\n", durationArg, err)
			return 1
		}
	} else if err := cfg.ValidateHelixReady(); err != nil {
		fmt.Fprintf(stderr, "duration auto: %v\n", err)
		return 1
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing(serviceName, serviceVersion, cfg.OTELEndpoint)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		return 1
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "main"))

	if duration < 0 {
		duration, err = lookupDuration(ctx, cfg, videoID)
		if err != nil {
			logger.Error("duration lookup failed", slog.String("vod_id", videoID), slog.Any("err", err))
			return 1
		}
		logger.Info("duration resolved", slog.String("vod_id", videoID), slog.String("duration", chat.FormatOffset(duration)))
	}

	client := twitchapi.NewGQLClient(cfg.GQLURL, cfg.GQLClientID, cfg.GQLTimeout, cfg.RequestInterval)
	res, err := vod.ImportChat(ctx, client, videoID, duration, vod.ImportOptions{
		Stride: cfg.WindowStride,
		Logger: logger,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted, no transcript written")
		} else {
			logger.Error("chat import failed", slog.Any("err", err))
		}
		return 1
	}

	path, err := chat.WriteFile(cfg.OutputDir, res.Transcript)
	if err != nil {
		logger.Error("write transcript failed", slog.Any("err", err))
		return 1
	}
	telemetry.TranscriptMessages.Set(float64(len(res.Transcript.Comments)))
	logger.Info("transcript written",
		slog.String("path", path),
		slog.Int("messages", len(res.Transcript.Comments)),
		slog.Int("failed_windows", res.Failed))

	if cfg.DBDsn != "" {
		if err := persist(ctx, cfg.DBDsn, res.Transcript); err != nil {
			logger.Error("persist transcript failed", slog.Any("err", err), slog.String("component", "db"))
		} else {
			logger.Info("transcript stored", slog.String("component", "db"))
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := telemetry.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("write metrics textfile failed", slog.String("path", cfg.MetricsTextfile), slog.Any("err", err))
		}
	}
	return 0
}

// newLogger mirrors the LOG_LEVEL / LOG_FORMAT handling of the service
// binaries: unknown levels fall back to info with a warning.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	unknown := false
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		unknown = true
	}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	logger := slog.New(handler)
	if unknown {
		logger.Warn("unknown LOG_LEVEL, using info", slog.String("value", level))
	}
	return logger
}

// helixLookupTimeout bounds the whole auto duration lookup, token request included.
var helixLookupTimeout = 15 * time.Second

func lookupDuration(ctx context.Context, cfg *config.Config, videoID string) (int, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, helixLookupTimeout)
	defer cancel()
	// The token source performs its request with lookupCtx.
	tokens, err := twitchapi.NewAppTokenSource(lookupCtx, cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.TokenURL, nil)
	if err != nil {
		return 0, err
	}
	helix := &twitchapi.HelixClient{BaseURL: cfg.HelixURL, ClientID: cfg.TwitchClientID, Tokens: tokens}
	meta, err := helix.GetVideo(lookupCtx, videoID)
	if err != nil {
		return 0, err
	}
	d := vod.ParseTwitchDuration(meta.Duration)
	if d <= 0 {
		return 0, fmt.Errorf("helix returned unusable duration %q", meta.Duration)
	}
	return d, nil
}

func persist(ctx context.Context, dsn string, t *chat.Transcript) error {
	store, err := db.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return store.SaveTranscript(ctx, t)
}
