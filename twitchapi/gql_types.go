package twitchapi

import "encoding/json"

// Every level of the GQL payload is optional: Twitch drops "video" for unknown or
// private VODs, and individual nodes can lack commenter or message. Pointers keep
// "absent" distinguishable from a zero value.
//
// A level holding a value of the wrong JSON type decodes as absent instead of
// failing the whole response, so one odd node cannot cost the rest of the window.
// Only a body that is not valid JSON is a decode error.

// CommentsResponse is the GraphQL envelope returned for commentsQuery.
type CommentsResponse struct {
	Data   *CommentsData `json:"data"`
	Errors []GQLError    `json:"errors,omitempty"`
}

type GQLError struct {
	Message string `json:"message"`
}

type CommentsData struct {
	Video *VideoNode `json:"video"`
}

type VideoNode struct {
	Comments *CommentConnection `json:"comments"`
}

type CommentConnection struct {
	Edges    []CommentEdge `json:"edges"`
	PageInfo *PageInfo     `json:"pageInfo"`
}

type PageInfo struct {
	HasNextPage bool `json:"hasNextPage"`
}

type CommentEdge struct {
	Node *CommentNode `json:"node"`
}

type CommentNode struct {
	ContentOffsetSeconds *int            `json:"contentOffsetSeconds"`
	Commenter            *Commenter      `json:"commenter"`
	Message              *CommentMessage `json:"message"`
}

type Commenter struct {
	DisplayName *string `json:"displayName"`
}

type CommentMessage struct {
	Fragments []Fragment `json:"fragments"`
}

type Fragment struct {
	Text  *string        `json:"text"`
	Emote *FragmentEmote `json:"emote"`
}

type FragmentEmote struct {
	EmoteID *string `json:"emoteID"`
}

// optional decodes raw into a new T. Missing, null and wrong-typed values yield nil.
func optional[T any](raw json.RawMessage) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil
	}
	return v
}

// optionalList decodes a JSON array element by element. A non-array yields nil;
// elements that fail to decode are left out.
func optionalList[T any](raw json.RawMessage) []T {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if v := optional[T](item); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// fields splits a JSON object into its members. It fails for anything but an object.
func fields(b []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	return m, nil
}

// UnmarshalJSON accepts any JSON value; a non-object body leaves r empty.
func (r *CommentsResponse) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		*r = CommentsResponse{}
		return nil
	}
	r.Data = optional[CommentsData](f["data"])
	r.Errors = optionalList[GQLError](f["errors"])
	return nil
}

func (d *CommentsData) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	d.Video = optional[VideoNode](f["video"])
	return nil
}

func (v *VideoNode) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	v.Comments = optional[CommentConnection](f["comments"])
	return nil
}

func (c *CommentConnection) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	c.Edges = optionalList[CommentEdge](f["edges"])
	c.PageInfo = optional[PageInfo](f["pageInfo"])
	return nil
}

func (e *CommentEdge) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	e.Node = optional[CommentNode](f["node"])
	return nil
}

func (n *CommentNode) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	// Offsets are whole seconds; tolerate a float encoding.
	if sec := optional[float64](f["contentOffsetSeconds"]); sec != nil {
		off := int(*sec)
		n.ContentOffsetSeconds = &off
	}
	n.Commenter = optional[Commenter](f["commenter"])
	n.Message = optional[CommentMessage](f["message"])
	return nil
}

func (c *Commenter) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	c.DisplayName = optional[string](f["displayName"])
	return nil
}

func (m *CommentMessage) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	m.Fragments = optionalList[Fragment](f["fragments"])
	return nil
}

// UnmarshalJSON decodes a fragment; a malformed fragment is kept with neither
// text nor emote, so it still takes its place in the message.
func (fr *Fragment) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		*fr = Fragment{}
		return nil
	}
	fr.Text = optional[string](f["text"])
	fr.Emote = optional[FragmentEmote](f["emote"])
	return nil
}

func (e *FragmentEmote) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	e.EmoteID = optional[string](f["emoteID"])
	return nil
}

func (p *PageInfo) UnmarshalJSON(b []byte) error {
	f, err := fields(b)
	if err != nil {
		return err
	}
	if more := optional[bool](f["hasNextPage"]); more != nil {
		p.HasNextPage = *more
	}
	return nil
}

// Absence names the first level of the payload that was missing.
type Absence int

const (
	AbsentNone Absence = iota
	AbsentResponse
	AbsentData
	AbsentVideo
	AbsentComments
	AbsentEdges
)

func (a Absence) String() string {
	switch a {
	case AbsentNone:
		return "none"
	case AbsentResponse:
		return "response"
	case AbsentData:
		return "data"
	case AbsentVideo:
		return "video"
	case AbsentComments:
		return "comments"
	case AbsentEdges:
		return "edges"
	default:
		return "unknown"
	}
}

// Edges walks data.video.comments.edges. When any level is missing it returns
// nil and the Absence naming that level. An empty but present edge list is
// AbsentNone.
func (r *CommentsResponse) Edges() ([]CommentEdge, Absence) {
	switch {
	case r == nil:
		return nil, AbsentResponse
	case r.Data == nil:
		return nil, AbsentData
	case r.Data.Video == nil:
		return nil, AbsentVideo
	case r.Data.Video.Comments == nil:
		return nil, AbsentComments
	case r.Data.Video.Comments.Edges == nil:
		return nil, AbsentEdges
	}
	return r.Data.Video.Comments.Edges, AbsentNone
}

// HasNextPage reports pageInfo.hasNextPage, false when absent.
func (r *CommentsResponse) HasNextPage() bool {
	if r == nil || r.Data == nil || r.Data.Video == nil || r.Data.Video.Comments == nil {
		return false
	}
	pi := r.Data.Video.Comments.PageInfo
	return pi != nil && pi.HasNextPage
}

// Offset returns contentOffsetSeconds and whether it was present.
func (n *CommentNode) Offset() (int, bool) {
	if n == nil || n.ContentOffsetSeconds == nil {
		return 0, false
	}
	return *n.ContentOffsetSeconds, true
}

// DisplayName returns the commenter's display name and whether both the
// commenter and its displayName were present.
func (n *CommentNode) DisplayName() (string, bool) {
	if n == nil || n.Commenter == nil || n.Commenter.DisplayName == nil {
		return "", false
	}
	return *n.Commenter.DisplayName, true
}

// Fragments returns the message fragments, nil when message is absent.
func (n *CommentNode) Fragments() []Fragment {
	if n == nil || n.Message == nil {
		return nil
	}
	return n.Message.Fragments
}

// TextValue returns the literal text and whether it was present.
func (f Fragment) TextValue() (string, bool) {
	if f.Text == nil {
		return "", false
	}
	return *f.Text, true
}

// EmoteIDValue returns the emote id, empty when emote or emoteID is absent.
func (f Fragment) EmoteIDValue() string {
	if f.Emote == nil || f.Emote.EmoteID == nil {
		return ""
	}
	return *f.Emote.EmoteID
}
