// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
)

// FakeCatalog is an in-memory test double for [services.Catalog] and [services.Account].
//
// Search results are keyed by exact search text. Playlists keep insertion order and allow duplicates,
// mirroring the provider's append semantics. Every call is recorded in Calls.
type FakeCatalog struct {
	mu sync.Mutex

	Results   map[string][]models.Track
	Liked     map[string]bool
	Lists     map[string][]string
	Names     map[string]string
	Tracks    map[string]models.Track
	User      models.User
	PageSize  int
	Calls     []string
	Searches  []string
	Fail      map[string]error
	SearchErr map[string]error

	created int
}

// NewFakeCatalog creates an empty catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Results:   map[string][]models.Track{},
		Liked:     map[string]bool{},
		Lists:     map[string][]string{},
		Names:     map[string]string{},
		Tracks:    map[string]models.Track{},
		Fail:      map[string]error{},
		SearchErr: map[string]error{},
		User:      models.User{ID: "fake-user", DisplayName: "Fake User"},
	}
}

// AddResult registers track as the top hit for text.
func (f *FakeCatalog) AddResult(text string, track models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[text] = append(f.Results[text], track)
	f.Tracks[track.ID] = track
}

// AddPlaylist seeds a playlist with ids.
func (f *FakeCatalog) AddPlaylist(id, name string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lists[id] = append([]string(nil), ids...)
	f.Names[id] = name
	for _, trackID := range ids {
		if _, ok := f.Tracks[trackID]; !ok {
			f.Tracks[trackID] = models.Track{ID: trackID, Title: "Track " + trackID, Artist: "Artist"}
		}
	}
}

// CallLog returns a copy of the recorded call names.
func (f *FakeCatalog) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

// Count returns how many times a call with the given name was recorded.
func (f *FakeCatalog) Count(name string) int {
	n := 0
	for _, c := range f.CallLog() {
		if c == name {
			n++
		}
	}
	return n
}

// Playlist returns a copy of a playlist's ids.
func (f *FakeCatalog) Playlist(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Lists[id]...)
}

func (f *FakeCatalog) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
	return f.Fail[name]
}

func (f *FakeCatalog) SearchTracks(ctx context.Context, text string, limit int) ([]models.Track, error) {
	if err := f.record("SearchTracks"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, text)
	if err := f.SearchErr[text]; err != nil {
		return nil, err
	}

	results := f.Results[text]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return append([]models.Track(nil), results...), nil
}

func (f *FakeCatalog) AddToLiked(ctx context.Context, ids []string) error {
	if err := f.record("AddToLiked"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.Liked[id] = true
	}
	return nil
}

func (f *FakeCatalog) RemoveFromLiked(ctx context.Context, ids []string) error {
	if err := f.record("RemoveFromLiked"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.Liked, id)
	}
	return nil
}

func (f *FakeCatalog) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	if err := f.record("CreatePlaylist"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	id := fmt.Sprintf("created-%d", f.created)
	f.Lists[id] = nil
	f.Names[id] = name
	return &models.Playlist{ID: id, Name: name, Owner: f.User.DisplayName, Public: true}, nil
}

func (f *FakeCatalog) AddToPlaylist(ctx context.Context, playlistID string, ids []string) error {
	if err := f.record("AddToPlaylist"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Lists[playlistID]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	f.Lists[playlistID] = append(f.Lists[playlistID], ids...)
	return nil
}

func (f *FakeCatalog) RemoveFromPlaylist(ctx context.Context, playlistID string, ids []string) error {
	if err := f.record("RemoveFromPlaylist"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.Lists[playlistID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := current[:0:0]
	for _, id := range current {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	f.Lists[playlistID] = kept
	return nil
}

// ListTracks pages through a playlist using "page-N" cursors.
func (f *FakeCatalog) ListTracks(ctx context.Context, playlistID, cursor string, limit int) (*models.TrackPage, error) {
	if err := f.record("ListTracks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids, ok := f.Lists[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	size := limit
	if f.PageSize > 0 {
		size = f.PageSize
	}
	if size <= 0 {
		size = len(ids) + 1
	}

	start := 0
	if cursor != "" {
		if _, err := fmt.Sscanf(cursor, "page-%d", &start); err != nil {
			return nil, fmt.Errorf("%w: bad cursor %q", shared.ErrAPIRequest, cursor)
		}
	}

	end := min(start+size, len(ids))
	page := &models.TrackPage{Total: len(ids)}
	for _, id := range ids[start:end] {
		track, ok := f.Tracks[id]
		if !ok {
			track = models.Track{ID: id, Title: "Track " + id, Artist: "Artist"}
		}
		page.Items = append(page.Items, track)
	}
	if end < len(ids) {
		page.Next = fmt.Sprintf("page-%d", end)
	}
	return page, nil
}

func (f *FakeCatalog) CurrentUser(ctx context.Context) (*models.User, error) {
	if err := f.record("CurrentUser"); err != nil {
		return nil, err
	}
	u := f.User
	return &u, nil
}

func (f *FakeCatalog) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if err := f.record("Playlists"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Playlist, 0, len(f.Lists))
	for id, ids := range f.Lists {
		out = append(out, models.Playlist{ID: id, Name: f.Names[id], TrackCount: len(ids), Owner: f.User.DisplayName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FakeService wraps a [FakeCatalog] with the remaining [services.Service] methods.
type FakeService struct {
	*FakeCatalog
	AuthErr     error
	Credentials map[string]string
}

func (s *FakeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	s.Credentials = credentials
	return s.AuthErr
}

func (s *FakeService) Name() string { return "fake" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// JSONResponse builds a canned response for [MockRoundTripper].
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
