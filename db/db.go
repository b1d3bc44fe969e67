// Package db persists fetched transcripts. Postgres (pgx) and SQLite (modernc)
// are both supported; the DSN decides which driver is used.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
	_ "modernc.org/sqlite"             // pure Go sqlite driver registered as 'sqlite'

	"github.com/onnwee/vod-chat/chat"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Store wraps a connection together with the driver it was opened with, so
// queries can be adapted to the driver's placeholder style.
type Store struct {
	DB     *sql.DB
	Driver string
}

// DriverFor maps a DSN to a driver name and the data source that driver expects.
// postgres:// and postgresql:// URLs go to pgx; anything else is a SQLite path,
// optionally prefixed with "sqlite:".
func DriverFor(dsn string) (driver, source string) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres, dsn
	}
	return DriverSQLite, strings.TrimPrefix(dsn, "sqlite:")
}

// Connect opens dsn. The connection is verified with a ping.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty dsn")
	}
	driver, source := DriverFor(dsn)
	sqlDB, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1) // SQLite: single writer
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Store{DB: sqlDB, Driver: driver}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

var pgPlaceholder = regexp.MustCompile(`\$\d+`)

// rebind rewrites $n placeholders to ? for SQLite. Queries must use their
// placeholders in argument order.
func (s *Store) rebind(q string) string {
	if s.Driver != DriverSQLite {
		return q
	}
	return pgPlaceholder.ReplaceAllString(q, "?")
}

// SaveTranscript upserts the vod row and stores every comment in one
// transaction. Comments already stored for the same offset are left alone, so
// reruns only add what earlier runs missed. message_count is recounted from
// chat_messages and always matches what LoadTranscript returns.
func (s *Store) SaveTranscript(ctx context.Context, t *chat.Transcript) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("rollback failed", slog.Any("err", rbErr), slog.String("component", "db"))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO vods (twitch_vod_id, duration_seconds, message_count, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (twitch_vod_id) DO UPDATE SET
			duration_seconds=EXCLUDED.duration_seconds,
			message_count=EXCLUDED.message_count,
			updated_at=EXCLUDED.updated_at`),
		t.VideoID, t.Duration, len(t.Comments), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert vod: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO chat_messages (vod_id, rel_offset, display_time, username, message)
		VALUES ($1,$2,$3,$4,$5) ON CONFLICT (vod_id, rel_offset) DO NOTHING`))
	if err != nil {
		return fmt.Errorf("prepare insert chat: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			slog.Warn("failed to close prepared statement", slog.Any("err", cerr))
		}
	}()
	for _, c := range t.Comments {
		if _, err = stmt.ExecContext(ctx, t.VideoID, c.Offset, c.DisplayTime(), c.Username, c.Message); err != nil {
			return fmt.Errorf("insert chat offset %d: %w", c.Offset, err)
		}
	}
	if _, err = tx.ExecContext(ctx, s.rebind(`UPDATE vods SET message_count=(SELECT COUNT(*) FROM chat_messages WHERE vod_id=$1)
		WHERE twitch_vod_id=$2`), t.VideoID, t.VideoID); err != nil {
		return fmt.Errorf("recount messages: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadComments returns the stored comments of vodID ordered by offset.
func (s *Store) LoadComments(ctx context.Context, vodID string) ([]chat.Comment, error) {
	rows, err := s.DB.QueryContext(ctx, s.rebind(`SELECT rel_offset, username, message FROM chat_messages WHERE vod_id=$1 ORDER BY rel_offset`), vodID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close rows", slog.Any("err", err))
		}
	}()
	var out []chat.Comment
	for rows.Next() {
		var c chat.Comment
		if err := rows.Scan(&c.Offset, &c.Username, &c.Message); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MessageCount returns the number of messages stored for vodID, 0 when unknown.
func (s *Store) MessageCount(ctx context.Context, vodID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, s.rebind(`SELECT message_count FROM vods WHERE twitch_vod_id=$1`), vodID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// ErrNotFound is returned by LoadTranscript for a VOD that was never saved.
var ErrNotFound = errors.New("vod not found")

// LoadTranscript rebuilds the transcript saved for vodID.
func (s *Store) LoadTranscript(ctx context.Context, vodID string) (*chat.Transcript, error) {
	var duration int
	err := s.DB.QueryRowContext(ctx, s.rebind(`SELECT duration_seconds FROM vods WHERE twitch_vod_id=$1`), vodID).Scan(&duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, vodID)
	}
	if err != nil {
		return nil, err
	}
	comments, err := s.LoadComments(ctx, vodID)
	if err != nil {
		return nil, err
	}
	return &chat.Transcript{VideoID: vodID, Duration: duration, Comments: comments}, nil
}
