package chat

import (
	"encoding/json"
	"testing"

	"github.com/onnwee/vod-chat/twitchapi"
)

func decode(t *testing.T, body string) *twitchapi.CommentsResponse {
	t.Helper()
	var r twitchapi.CommentsResponse
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("unmarshal %s: %v", body, err)
	}
	return &r
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{330, "00:05:30"},
		{3600, "01:00:00"},
		{9887, "02:44:47"},
		{100 * 3600, "100:00:00"},
		{-5, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.in); got != tt.want {
			t.Errorf("FormatOffset(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAssembleMessage(t *testing.T) {
	tests := []struct {
		name  string
		frags string
		want  string
	}{
		{"text then emote", `[{"text":"hi "},{"emote":{"emoteID":"123"}}]`, "hi [123]"},
		{"text only", `[{"text":"hello"},{"text":" world"}]`, "hello world"},
		{"empty text falls back to emote", `[{"text":"","emote":{"emoteID":"25"}}]`, "[25]"},
		{"emote without id", `[{"emote":{}}]`, "[]"},
		{"null emote", `[{"text":null,"emote":null}]`, "[]"},
		{"no fragments", `[]`, ""},
		{"text wins over emote", `[{"text":"Kappa","emote":{"emoteID":"25"}}]`, "Kappa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var frags []twitchapi.Fragment
			if err := json.Unmarshal([]byte(tt.frags), &frags); err != nil {
				t.Fatal(err)
			}
			if got := AssembleMessage(frags); got != tt.want {
				t.Errorf("AssembleMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergerAdd(t *testing.T) {
	m := NewMerger()
	n := m.Add(decode(t, `{"data":{"video":{"comments":{"edges":[
		{"node":{"contentOffsetSeconds":5,"commenter":{"displayName":"alice"},"message":{"fragments":[{"text":"first"}]}}},
		{"node":{"contentOffsetSeconds":120,"commenter":null,"message":{"fragments":[{"text":"ghost"}]}}},
		{"node":{"contentOffsetSeconds":60,"message":{"fragments":[{"text":"no commenter key"}]}}},
		{"node":{"contentOffsetSeconds":61,"commenter":{},"message":{"fragments":[{"text":"no name"}]}}}
	]}}}}`))
	if n != 4 {
		t.Fatalf("Add() = %d, want 4", n)
	}
	tr := m.Transcript("v1", 300)
	want := []Comment{
		{Offset: 5, Username: "alice", Message: "first"},
		{Offset: 60, Username: DeletedUser, Message: "no commenter key"},
		{Offset: 61, Username: DeletedUser, Message: "no name"},
		{Offset: 120, Username: DeletedUser, Message: "ghost"},
	}
	if len(tr.Comments) != len(want) {
		t.Fatalf("len(Comments) = %d, want %d", len(tr.Comments), len(want))
	}
	for i := range want {
		if tr.Comments[i] != want[i] {
			t.Errorf("Comments[%d] = %+v, want %+v", i, tr.Comments[i], want[i])
		}
	}
}

func TestMergerDedupAcrossWindows(t *testing.T) {
	m := NewMerger()
	m.Add(decode(t, `{"data":{"video":{"comments":{"edges":[
		{"node":{"contentOffsetSeconds":100,"commenter":{"displayName":"a"},"message":{"fragments":[{"text":"x"}]}}},
		{"node":{"contentOffsetSeconds":120,"commenter":{"displayName":"first"},"message":{"fragments":[{"text":"kept"}]}}}
	]}}}}`))
	added := m.Add(decode(t, `{"data":{"video":{"comments":{"edges":[
		{"node":{"contentOffsetSeconds":120,"commenter":{"displayName":"second"},"message":{"fragments":[{"text":"dropped"}]}}},
		{"node":{"contentOffsetSeconds":300,"commenter":{"displayName":"b"},"message":{"fragments":[{"text":"y"}]}}}
	]}}}}`))
	if added != 1 {
		t.Errorf("second Add() = %d, want 1", added)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	count := 0
	for _, c := range m.Transcript("v", 600).Comments {
		if c.Offset == 120 {
			count++
			if c.Username != "first" || c.Message != "kept" {
				t.Errorf("offset 120 = %+v, want first write", c)
			}
		}
	}
	if count != 1 {
		t.Errorf("offset 120 appears %d times, want 1", count)
	}
}

func TestMergerMissingLevels(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"data":null}`,
		`{"data":{"video":null}}`,
		`{"data":{"video":{"comments":null}}}`,
		`{"data":{"video":{"comments":{"pageInfo":{"hasNextPage":false}}}}}`,
	}
	m := NewMerger()
	for _, b := range bodies {
		if n := m.Add(decode(t, b)); n != 0 {
			t.Errorf("Add(%s) = %d, want 0", b, n)
		}
	}
	if n := m.Add(nil); n != 0 {
		t.Errorf("Add(nil) = %d, want 0", n)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestMergerMissingNodeAndOffset(t *testing.T) {
	m := NewMerger()
	// An edge without node and a node without offset both land on offset 0;
	// only the first one is kept.
	n := m.Add(decode(t, `{"data":{"video":{"comments":{"edges":[
		{},
		{"node":{"commenter":{"displayName":"late"},"message":{"fragments":[{"text":"zero"}]}}}
	]}}}}`))
	if n != 1 {
		t.Fatalf("Add() = %d, want 1", n)
	}
	c := m.Transcript("v", 10).Comments[0]
	if c.Offset != 0 || c.Username != DeletedUser || c.Message != "" {
		t.Errorf("comment = %+v, want empty deleted comment at 0", c)
	}
}

func TestMergerMalformedNodeKeepsGoodComments(t *testing.T) {
	m := NewMerger()
	n := m.Add(decode(t, `{"data":{"video":{"comments":{"edges":[
		{"node":{"contentOffsetSeconds":5,"commenter":{"displayName":"alice"},"message":{"fragments":[{"text":"hello"}]}}},
		{"node":{"contentOffsetSeconds":10,"commenter":"weird","message":{"fragments":[{"text":7},"junk",{"text":"ok"}]}}},
		42,
		{"node":{"contentOffsetSeconds":15,"commenter":{"displayName":["bob"]},"message":"gone"}}
	]}}}}`))
	if n != 3 {
		t.Fatalf("Add() = %d, want 3", n)
	}
	got := m.Transcript("v", 60).Comments
	want := []Comment{
		{Offset: 5, Username: "alice", Message: "hello"},
		{Offset: 10, Username: DeletedUser, Message: "[][]ok"},
		{Offset: 15, Username: DeletedUser, Message: ""},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("comment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
