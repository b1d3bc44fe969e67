package chat

import "fmt"

// DeletedUser is shown when a comment has no commenter (account removed or unknown).
const DeletedUser = "[deleted]"

// Comment is one chat replay line, keyed by its content offset in seconds.
type Comment struct {
	Offset   int
	Username string
	Message  string
}

// DisplayTime returns the offset as HH:MM:SS.
func (c Comment) DisplayTime() string { return FormatOffset(c.Offset) }

// String renders the transcript line for c.
func (c Comment) String() string {
	return fmt.Sprintf("[%s] %s: %s", c.DisplayTime(), c.Username, c.Message)
}

// FormatOffset formats seconds as zero-padded HH:MM:SS. Hours are not wrapped
// at 24.
func FormatOffset(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	rem := seconds % 3600
	m := rem / 60
	s := rem % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
