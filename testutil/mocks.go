package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// MockGQLServer answers chat replay queries from canned pages keyed by the
// requested content offset. Offsets without a page get an empty edge list.
type MockGQLServer struct {
	*httptest.Server

	mu      sync.Mutex
	pages   map[int]string
	status  map[int]int
	offsets []int
}

// NewMockGQLServer creates a new mock GQL server
func NewMockGQLServer(t *testing.T) *MockGQLServer {
	t.Helper()
	m := &MockGQLServer{
		pages:  make(map[int]string),
		status: make(map[int]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.Close)
	return m
}

func (m *MockGQLServer) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Variables struct {
			V string `json:"v"`
			O int    `json:"o"`
		} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	m.mu.Lock()
	m.offsets = append(m.offsets, req.Variables.O)
	code, failed := m.status[req.Variables.O]
	body, ok := m.pages[req.Variables.O]
	m.mu.Unlock()

	if failed {
		http.Error(w, http.StatusText(code), code)
		return
	}
	if !ok {
		body = Page()
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body)) //nolint:errcheck // test mock response
}

// SetPage serves body for requests at offset.
func (m *MockGQLServer) SetPage(offset int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[offset] = body
}

// FailWith makes requests at offset fail with the given HTTP status.
func (m *MockGQLServer) FailWith(offset, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[offset] = code
}

// Offsets returns the offsets requested so far, in request order.
func (m *MockGQLServer) Offsets() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.offsets...)
}

// Page renders a comments response with one comment per offset. Commenter and
// text are derived from the offset: user "u<offset>" saying "m<offset>".
func Page(offsets ...int) string {
	edges := make([]string, 0, len(offsets))
	for _, o := range offsets {
		edges = append(edges, fmt.Sprintf(
			`{"node":{"contentOffsetSeconds":%d,"commenter":{"displayName":"u%d"},"message":{"fragments":[{"text":"m%d"}]}}}`, o, o, o))
	}
	return `{"data":{"video":{"comments":{"edges":[` + strings.Join(edges, ",") + `],"pageInfo":{"hasNextPage":false}}}}}`
}
