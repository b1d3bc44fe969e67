package chat

import (
	"sort"
	"strings"

	"github.com/onnwee/vod-chat/twitchapi"
)

// Merger accumulates comments from successive GQL windows. Windows overlap, so
// only the first comment seen at a given offset is kept.
type Merger struct {
	byOffset map[int]Comment
}

// NewMerger returns an empty Merger.
func NewMerger() *Merger {
	return &Merger{byOffset: make(map[int]Comment)}
}

// Add merges the comments of one response and returns how many were new.
// A response with any missing level (no data, video, comments or edges)
// contributes nothing.
func (m *Merger) Add(resp *twitchapi.CommentsResponse) int {
	edges, absent := resp.Edges()
	if absent != twitchapi.AbsentNone {
		return 0
	}
	added := 0
	for _, e := range edges {
		if m.addNode(e.Node) {
			added++
		}
	}
	return added
}

func (m *Merger) addNode(n *twitchapi.CommentNode) bool {
	offset, _ := n.Offset()
	if _, dup := m.byOffset[offset]; dup {
		return false
	}
	user, ok := n.DisplayName()
	if !ok {
		user = DeletedUser
	}
	m.byOffset[offset] = Comment{
		Offset:   offset,
		Username: user,
		Message:  AssembleMessage(n.Fragments()),
	}
	return true
}

// AssembleMessage joins fragments in order. A fragment with non-empty text
// contributes the text; anything else contributes "[emoteID]".
func AssembleMessage(frags []twitchapi.Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		if txt, ok := f.TextValue(); ok && txt != "" {
			b.WriteString(txt)
			continue
		}
		b.WriteByte('[')
		b.WriteString(f.EmoteIDValue())
		b.WriteByte(']')
	}
	return b.String()
}

// Len is the number of distinct offsets collected so far.
func (m *Merger) Len() int { return len(m.byOffset) }

// Transcript returns the collected comments sorted by offset.
func (m *Merger) Transcript(videoID string, duration int) *Transcript {
	comments := make([]Comment, 0, len(m.byOffset))
	for _, c := range m.byOffset {
		comments = append(comments, c)
	}
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].Offset < comments[j].Offset })
	return &Transcript{VideoID: videoID, Duration: duration, Comments: comments}
}
