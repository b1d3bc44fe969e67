// Package main re-renders a transcript stored by vod-chat (DB_DSN) as the
// chat_vod_<id>_full.txt text file, without contacting Twitch.
//
// Usage:
//
//	export-transcript [--out DIR] [--dry-run] VOD_ID...
//
// Flags:
//
//	--out: Output directory (default: $OUTPUT_DIR or /tmp)
//	--dry-run: Report what would be written without writing files
//
// Environment Variables:
//
//	DB_DSN: Database connection string (required); postgres:// URL or SQLite path
//
// Example:
//
//	export DB_DSN="sqlite:/var/lib/vod-chat/chat.db"
//	./export-transcript --out ./transcripts 2051234567
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/onnwee/vod-chat/chat"
	"github.com/onnwee/vod-chat/config"
	"github.com/onnwee/vod-chat/db"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("export-transcript", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "", "Output directory (default: $OUTPUT_DIR or /tmp)")
	dryRun := fs.Bool("dry-run", false, "Report what would be written without writing files")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if fs.NArg() == 0 {
		slog.Error("at least one VOD id is required")
		return 1
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		slog.Error("DB_DSN environment variable is required")
		return 1
	}
	dir := *out
	if dir == "" {
		dir = os.Getenv("OUTPUT_DIR")
	}
	if dir == "" {
		dir = config.DefaultOutputDir
	}

	ctx := context.Background()
	store, err := db.Connect(ctx, dsn)
	if err != nil {
		slog.Error("failed to connect to database", slog.Any("error", err))
		return 1
	}
	defer store.Close()

	failed := 0
	for _, id := range fs.Args() {
		if err := export(ctx, store, id, dir, *dryRun); err != nil {
			slog.Error("export failed", slog.String("vod_id", id), slog.Any("error", err))
			failed++
		}
	}
	if failed > 0 {
		return 1
	}
	slog.Info("export completed successfully", slog.Int("vods", fs.NArg()))
	return 0
}

// export writes the stored transcript of one VOD into dir.
func export(ctx context.Context, store *db.Store, vodID, dir string, dryRun bool) error {
	t, err := store.LoadTranscript(ctx, vodID)
	if err != nil {
		return err
	}
	if dryRun {
		slog.Info("[DRY RUN] would write transcript",
			slog.String("vod_id", vodID),
			slog.String("file", chat.FileName(vodID)),
			slog.Int("messages", len(t.Comments)))
		return nil
	}
	path, err := chat.WriteFile(dir, t)
	if err != nil {
		return fmt.Errorf("write %s: %w", vodID, err)
	}
	slog.Info("transcript written", slog.String("vod_id", vodID), slog.String("path", path), slog.Int("messages", len(t.Comments)))
	return nil
}
