package chat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Transcript is the sorted chat replay of one VOD.
type Transcript struct {
	VideoID  string
	Duration int
	Comments []Comment
}

const ruleWidth = 50

// WriteTo writes the header block followed by one line per comment.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	fmt.Fprintf(cw, "=== FULL CHAT VOD %s ===\n", t.VideoID)
	fmt.Fprintf(cw, "Duration: %s\n", FormatOffset(t.Duration))
	fmt.Fprintf(cw, "Total: %d messages\n", len(t.Comments))
	fmt.Fprintf(cw, "%s\n\n", strings.Repeat("=", ruleWidth))
	for _, c := range t.Comments {
		fmt.Fprintln(cw, c.String())
	}
	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, cw.w.Flush()
}

// countingWriter keeps the first write error so the Fprintf calls above can
// stay unchecked.
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// unsafeName matches characters not allowed in the id part of the file name.
var unsafeName = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F\s]`)

// FileName returns chat_vod_<id>_full.txt with the id made filesystem safe.
func FileName(videoID string) string {
	id := unsafeName.ReplaceAllString(videoID, "_")
	id = strings.Trim(id, ".")
	if id == "" {
		id = "unknown"
	}
	return fmt.Sprintf("chat_vod_%s_full.txt", id)
}

// WriteFile writes t into dir under FileName(t.VideoID), replacing any previous
// run's file. The content goes to a temp file in dir first and is renamed into
// place, so readers never observe a half-written transcript.
func WriteFile(dir string, t *Transcript) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	dest := filepath.Join(dir, FileName(t.VideoID))

	tmp, err := os.CreateTemp(dir, ".chat-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := t.WriteTo(tmp); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("rename temp -> %s: %w", dest, err)
	}
	return dest, nil
}
