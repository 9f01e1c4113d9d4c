package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
	tu "github.com/desertthunder/textify/internal/testing"
	"golang.org/x/time/rate"
)

func track(id string) models.Track {
	return models.Track{ID: id, Title: "Title " + id, Artist: "Artist " + id}
}

func newCatalog() *tu.FakeCatalog {
	c := tu.NewFakeCatalog()
	c.AddResult("Blinding Lights The Weeknd", track("weeknd"))
	c.AddResult("Shape of You - Ed Sheeran", track("sheeran"))
	c.AddResult("Bohemian Rhapsody", track("queen"))
	c.AddResult("Bohemian Rhapsody", track("queen-live"))
	return c
}

// pagingCatalog lets a test replace ListTracks.
type pagingCatalog struct {
	*tu.FakeCatalog
	list func(cursor string) (*models.TrackPage, error)
}

func (p *pagingCatalog) ListTracks(ctx context.Context, playlistID, cursor string, limit int) (*models.TrackPage, error) {
	return p.list(cursor)
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepts Top Candidate", func(t *testing.T) {
		r := NewResolver(newCatalog(), nil)
		got, err := r.Resolve(ctx, models.ParsedQuery{RawLine: "Bohemian Rhapsody", SearchText: "Bohemian Rhapsody"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != "queen" {
			t.Errorf("expected top-ranked id 'queen', got %q", got.ID)
		}
	})

	t.Run("Searches With Limit One", func(t *testing.T) {
		c := newCatalog()
		r := NewResolver(c, nil)
		_, _ = r.Resolve(ctx, models.ParsedQuery{RawLine: "x", SearchText: "Bohemian Rhapsody"})
		if c.Count("SearchTracks") != 1 {
			t.Errorf("expected exactly one search, got %d", c.Count("SearchTracks"))
		}
	})

	t.Run("Failures Collapse To Not Found", func(t *testing.T) {
		c := newCatalog()
		c.SearchErr["broken"] = fmt.Errorf("%w: boom", shared.ErrRateLimited)

		tests := []struct {
			name string
			text string
		}{
			{name: "No Results", text: "unknown song"},
			{name: "Provider Error", text: "broken"},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewResolver(c, nil).Resolve(ctx, models.ParsedQuery{RawLine: tc.text, SearchText: tc.text})
				if !errors.Is(err, shared.ErrTrackNotFound) {
					t.Errorf("expected ErrTrackNotFound, got %v", err)
				}
				if errors.Is(err, shared.ErrRateLimited) {
					t.Error("expected provider cause to be collapsed")
				}
			})
		}
	})

	t.Run("Limiter Failure Is Not Found", func(t *testing.T) {
		c := newCatalog()
		r := NewResolver(c, rate.NewLimiter(rate.Limit(1), 1))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := r.Resolve(cancelled, models.ParsedQuery{RawLine: "Bohemian Rhapsody", SearchText: "Bohemian Rhapsody"})
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
		if c.Count("SearchTracks") != 0 {
			t.Error("expected no search after limiter failure")
		}
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("Counts Every Non-Blank Line Once", func(t *testing.T) {
		blocks := []string{
			"Bohemian Rhapsody",
			"Bohemian Rhapsody\n\n   \nnope\n",
			"nope\r\nnada\r\nzilch",
			"Blinding Lights by The Weeknd\nShape of You - Ed Sheeran\nBohemian Rhapsody\nmissing",
		}

		for _, block := range blocks {
			e := NewEngine(newCatalog(), EngineOpts{})
			outcome := e.Reconcile(ctx, block, nil)

			want := len(splitNonBlank(block))
			if outcome.Total() != want {
				t.Errorf("block %q: expected %d accounted lines, got %d", block, want, outcome.Total())
			}
		}
	})

	t.Run("Keeps Input Order And Duplicates", func(t *testing.T) {
		e := NewEngine(newCatalog(), EngineOpts{})
		outcome := e.Reconcile(ctx, "Bohemian Rhapsody\nmissing one\nBlinding Lights by The Weeknd\nBohemian Rhapsody\n  missing two  ", nil)

		if !slices.Equal(outcome.ResolvedIDs, []string{"queen", "weeknd", "queen"}) {
			t.Errorf("unexpected resolved ids %v", outcome.ResolvedIDs)
		}
		if !slices.Equal(outcome.UnmatchedLines, []string{"missing one", "missing two"}) {
			t.Errorf("unexpected unmatched lines %v", outcome.UnmatchedLines)
		}
	})

	t.Run("Resolves Sequentially With Parsed Search Text", func(t *testing.T) {
		c := newCatalog()
		e := NewEngine(c, EngineOpts{})
		e.Reconcile(ctx, "Blinding Lights by The Weeknd\nShape of You - Ed Sheeran", nil)

		want := []string{"Blinding Lights The Weeknd", "Shape of You - Ed Sheeran"}
		if !slices.Equal(c.Searches, want) {
			t.Errorf("expected searches %v, got %v", want, c.Searches)
		}
	})

	t.Run("Never Fails When Everything Misses", func(t *testing.T) {
		e := NewEngine(newCatalog(), EngineOpts{})
		outcome := e.Reconcile(ctx, "a\nb\nc", nil)
		if !outcome.Empty() || len(outcome.UnmatchedLines) != 3 {
			t.Errorf("expected empty outcome with 3 misses, got %+v", outcome)
		}
	})

	t.Run("Logs Unmatched Lines", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		logger.SetLevel(log.DebugLevel)

		NewEngine(newCatalog(), EngineOpts{Logger: logger}).Reconcile(ctx, "Nope by Nobody\nnada", nil)

		out := buf.String()
		if !strings.Contains(out, "split=true") || !strings.Contains(out, "split=false") {
			t.Errorf("expected split flag for both lines, got: %s", out)
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		c := newCatalog()
		outcome := NewEngine(c, EngineOpts{}).Reconcile(ctx, "\n  \n", nil)
		if outcome.Total() != 0 || c.Count("SearchTracks") != 0 {
			t.Errorf("expected no work for blank input, got %+v", outcome)
		}
	})

	t.Run("foldOutcome", func(t *testing.T) {
		queries := []models.ParsedQuery{{RawLine: "a"}, {RawLine: "b"}, {RawLine: "c"}}
		var steps []int

		outcome := foldOutcome(queries, func(step int, q models.ParsedQuery) (models.ResolvedTrack, error) {
			steps = append(steps, step)
			if q.RawLine == "b" {
				return models.ResolvedTrack{}, shared.ErrTrackNotFound
			}
			return models.ResolvedTrack{ID: "id-" + q.RawLine}, nil
		})

		if !slices.Equal(steps, []int{1, 2, 3}) {
			t.Errorf("expected steps 1..3, got %v", steps)
		}
		if !slices.Equal(outcome.ResolvedIDs, []string{"id-a", "id-c"}) || !slices.Equal(outcome.UnmatchedLines, []string{"b"}) {
			t.Errorf("unexpected outcome %+v", outcome)
		}
	})
}

func TestMutate(t *testing.T) {
	ctx := context.Background()

	t.Run("Add To Playlist Is Idempotent", func(t *testing.T) {
		c := newCatalog()
		c.AddPlaylist("p1", "Mix", "existing")
		e := NewEngine(c, EngineOpts{})

		first, err := e.Mutate(ctx, Playlist("p1"), Add, []string{"a", "b", "a"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		afterFirst := c.Playlist("p1")

		second, err := e.Mutate(ctx, Playlist("p1"), Add, []string{"a", "b", "a"})
		if err != nil {
			t.Fatalf("expected no error on second add, got %v", err)
		}

		if !slices.Equal(afterFirst, []string{"existing", "a", "b"}) {
			t.Errorf("unexpected playlist after first add %v", afterFirst)
		}
		if !slices.Equal(c.Playlist("p1"), afterFirst) {
			t.Errorf("expected second add to be a no-op, got %v", c.Playlist("p1"))
		}
		if first.Applied != 2 || second.Applied != 0 || second.Skipped != 2 {
			t.Errorf("unexpected results %+v then %+v", first, second)
		}
		if first.Requested != 2 || second.Requested != first.Requested {
			t.Errorf("expected the same requested count, got %d then %d", first.Requested, second.Requested)
		}
		if c.Count("AddToPlaylist") != 1 {
			t.Errorf("expected one provider add, got %d", c.Count("AddToPlaylist"))
		}
	})

	t.Run("Re-Adding To A Created Playlist", func(t *testing.T) {
		c := newCatalog()
		e := NewEngine(c, EngineOpts{})

		created, err := e.Mutate(ctx, CreatePlaylistNamed("Road Trip"), Add, []string{"a", "b"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		again, err := e.Mutate(ctx, created.Target, Add, []string{"b", "a"})
		if err != nil {
			t.Fatalf("expected no error on re-add, got %v", err)
		}

		if !slices.Equal(c.Playlist(created.Created.ID), []string{"a", "b"}) {
			t.Errorf("expected re-add to leave playlist unchanged, got %v", c.Playlist(created.Created.ID))
		}
		if again.Applied != 0 || again.Skipped != 2 || c.Count("AddToPlaylist") != 1 {
			t.Errorf("unexpected re-add result %+v with %d adds", again, c.Count("AddToPlaylist"))
		}
	})

	t.Run("Liked Songs Add And Remove Are Idempotent", func(t *testing.T) {
		c := newCatalog()
		e := NewEngine(c, EngineOpts{})

		for range 2 {
			if _, err := e.Mutate(ctx, Liked(), Add, []string{"a", "b"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if len(c.Liked) != 2 {
			t.Errorf("expected 2 liked songs, got %d", len(c.Liked))
		}

		for range 2 {
			if _, err := e.Mutate(ctx, Liked(), Remove, []string{"a"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if c.Liked["a"] || !c.Liked["b"] {
			t.Errorf("unexpected liked set %v", c.Liked)
		}
	})

	t.Run("Remove From Playlist", func(t *testing.T) {
		c := newCatalog()
		c.AddPlaylist("p1", "Mix", "a", "b", "a", "c")
		e := NewEngine(c, EngineOpts{})

		for range 2 {
			if _, err := e.Mutate(ctx, Playlist("p1"), Remove, []string{"a", "missing"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if !slices.Equal(c.Playlist("p1"), []string{"b", "c"}) {
			t.Errorf("unexpected playlist %v", c.Playlist("p1"))
		}
	})

	t.Run("Creates Playlist Before Adding", func(t *testing.T) {
		c := newCatalog()
		e := NewEngine(c, EngineOpts{})

		result, err := e.Mutate(ctx, CreatePlaylistNamed("Road Trip"), Add, []string{"a", "b"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !slices.Equal(c.CallLog(), []string{"CreatePlaylist", "AddToPlaylist"}) {
			t.Errorf("expected create then add, got %v", c.CallLog())
		}
		if result.Created == nil || result.Target.Kind != ExistingPlaylist || result.Target.PlaylistID != result.Created.ID {
			t.Errorf("expected created playlist to become the target, got %+v", result)
		}
		if !slices.Equal(c.Playlist(result.Created.ID), []string{"a", "b"}) {
			t.Errorf("unexpected created playlist contents %v", c.Playlist(result.Created.ID))
		}
	})

	t.Run("Create Failure Aborts", func(t *testing.T) {
		c := newCatalog()
		c.Fail["CreatePlaylist"] = fmt.Errorf("%w: quota", shared.ErrPermissionDenied)
		e := NewEngine(c, EngineOpts{})

		_, err := e.Mutate(ctx, CreatePlaylistNamed("Road Trip"), Add, []string{"a"})
		if !errors.Is(err, shared.ErrCreatePlaylist) || !errors.Is(err, shared.ErrPermissionDenied) {
			t.Errorf("expected ErrCreatePlaylist wrapping the cause, got %v", err)
		}
		if c.Count("AddToPlaylist") != 0 {
			t.Error("expected no mutation after failed create")
		}
	})

	t.Run("Bulk Failure Is Aggregate", func(t *testing.T) {
		c := newCatalog()
		c.Fail["AddToLiked"] = fmt.Errorf("%w: expired", shared.ErrNotAuthenticated)
		e := NewEngine(c, EngineOpts{})

		_, err := e.Mutate(ctx, Liked(), Add, []string{"a", "b"})
		if !errors.Is(err, shared.ErrMutation) || !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrMutation wrapping the cause, got %v", err)
		}
		if c.Count("AddToLiked") != 1 {
			t.Errorf("expected a single bulk call, got %d", c.Count("AddToLiked"))
		}
	})

	t.Run("Target Validation", func(t *testing.T) {
		tests := []struct {
			name   string
			target Target
			op     Operation
			want   error
		}{
			{name: "Missing Playlist ID", target: Playlist(" "), op: Remove, want: shared.ErrMissingArgument},
			{name: "Blank New Name", target: CreatePlaylistNamed(""), op: Add, want: shared.ErrMissingArgument},
			{name: "Remove From New Playlist", target: CreatePlaylistNamed("x"), op: Remove, want: shared.ErrInvalidArgument},
			{name: "Unknown Kind", target: Target{Kind: TargetKind(42)}, op: Add, want: shared.ErrUnknownTarget},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				c := newCatalog()
				_, err := NewEngine(c, EngineOpts{}).Mutate(ctx, tc.target, tc.op, []string{"a"})
				if !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
				if len(c.CallLog()) != 0 {
					t.Errorf("expected no provider calls, got %v", c.CallLog())
				}
			})
		}
	})
}

func TestFetchAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Concatenates Three Pages", func(t *testing.T) {
		c := newCatalog()
		ids := make([]string, 300)
		for i := range ids {
			ids[i] = fmt.Sprintf("t%03d", i)
		}
		c.AddPlaylist("big", "Big", ids...)

		listing, err := NewEngine(c, EngineOpts{}).FetchAll(ctx, "big")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(listing.IDs(), ids) {
			t.Errorf("expected all 300 ids in order, got %d", len(listing))
		}
		if c.Count("ListTracks") != 3 {
			t.Errorf("expected 3 page requests, got %d", c.Count("ListTracks"))
		}
	})

	t.Run("Single Page And Empty Playlist", func(t *testing.T) {
		c := newCatalog()
		c.AddPlaylist("small", "Small", "a", "b")
		c.AddPlaylist("empty", "Empty")
		e := NewEngine(c, EngineOpts{})

		small, err := e.FetchAll(ctx, "small")
		if err != nil || len(small) != 2 {
			t.Errorf("expected 2 tracks, got %d (%v)", len(small), err)
		}

		empty, err := e.FetchAll(ctx, "empty")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if empty == nil || len(empty) != 0 {
			t.Errorf("expected empty non-nil listing, got %v", empty)
		}
	})

	t.Run("Failure Discards Partial Listing", func(t *testing.T) {
		p := &pagingCatalog{FakeCatalog: newCatalog()}
		p.list = func(cursor string) (*models.TrackPage, error) {
			if cursor == "" {
				return &models.TrackPage{Items: []models.Track{track("a")}, Next: "second"}, nil
			}
			return nil, fmt.Errorf("%w: timeout", shared.ErrAPIRequest)
		}

		listing, err := NewEngine(p, EngineOpts{}).FetchAll(ctx, "p1")
		if !errors.Is(err, shared.ErrPagination) || !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrPagination wrapping the cause, got %v", err)
		}
		if listing != nil {
			t.Errorf("expected no partial listing, got %v", listing)
		}
	})

	t.Run("Repeated Continuation Reference", func(t *testing.T) {
		calls := 0
		p := &pagingCatalog{FakeCatalog: newCatalog()}
		p.list = func(cursor string) (*models.TrackPage, error) {
			calls++
			return &models.TrackPage{Items: []models.Track{track("a")}, Next: "loop"}, nil
		}

		_, err := NewEngine(p, EngineOpts{}).FetchAll(ctx, "p1")
		if !errors.Is(err, shared.ErrPagination) {
			t.Errorf("expected ErrPagination, got %v", err)
		}
		if calls != 2 {
			t.Errorf("expected to stop on the second page, got %d calls", calls)
		}
	})

	t.Run("Page Bound", func(t *testing.T) {
		calls := 0
		p := &pagingCatalog{FakeCatalog: newCatalog()}
		p.list = func(cursor string) (*models.TrackPage, error) {
			calls++
			return &models.TrackPage{Next: fmt.Sprintf("page-%d", calls)}, nil
		}

		_, err := NewEngine(p, EngineOpts{}).FetchAll(ctx, "p1")
		if !errors.Is(err, shared.ErrPagination) {
			t.Errorf("expected ErrPagination, got %v", err)
		}
		if calls != maxPages {
			t.Errorf("expected %d calls, got %d", maxPages, calls)
		}
	})
}

func TestActions(t *testing.T) {
	ctx := context.Background()

	t.Run("No Valid Tracks Skips Mutation", func(t *testing.T) {
		c := newCatalog()
		c.AddPlaylist("p1", "Mix")
		e := NewEngine(c, EngineOpts{})

		actions := map[string]func() (*ActionSummary, error){
			"AddToLiked":         func() (*ActionSummary, error) { return e.AddToLiked(ctx, "x\ny", nil) },
			"RemoveFromLiked":    func() (*ActionSummary, error) { return e.RemoveFromLiked(ctx, "x\ny", nil) },
			"AddToPlaylist":      func() (*ActionSummary, error) { return e.AddToPlaylist(ctx, "x\ny", PlaylistSelection{NewName: "New"}, nil) },
			"RemoveFromPlaylist": func() (*ActionSummary, error) { return e.RemoveFromPlaylist(ctx, "x\ny", "p1", nil) },
		}

		for name, action := range actions {
			t.Run(name, func(t *testing.T) {
				summary, err := action()
				if !errors.Is(err, shared.ErrNoValidTracks) {
					t.Errorf("expected ErrNoValidTracks, got %v", err)
				}
				if summary == nil || summary.Resolved != 0 || summary.Unmatched != 2 {
					t.Errorf("unexpected summary %+v", summary)
				}
			})
		}

		for _, call := range c.CallLog() {
			if call != "SearchTracks" {
				t.Errorf("expected only searches, got %s", call)
			}
		}
	})

	t.Run("AddToPlaylist Creates By Name", func(t *testing.T) {
		c := newCatalog()
		e := NewEngine(c, EngineOpts{})

		summary, err := e.AddToPlaylist(ctx, "Bohemian Rhapsody\nnope\nBlinding Lights by The Weeknd", PlaylistSelection{NewName: " Road Trip "}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if summary.Resolved != 2 || summary.Unmatched != 1 || summary.Applied != 2 || summary.Requested != 2 {
			t.Errorf("unexpected summary %+v", summary)
		}
		if summary.Created == nil || summary.Created.Name != "Road Trip" || summary.PlaylistID != summary.Created.ID {
			t.Errorf("expected created playlist in summary, got %+v", summary.Created)
		}
	})

	t.Run("Selection Prefers ID", func(t *testing.T) {
		c := newCatalog()
		c.AddPlaylist("p1", "Mix")
		e := NewEngine(c, EngineOpts{})

		summary, err := e.AddToPlaylist(ctx, "Bohemian Rhapsody", PlaylistSelection{ID: "p1", NewName: "ignored"}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if summary.Created != nil || c.Count("CreatePlaylist") != 0 {
			t.Error("expected existing playlist to be used")
		}
		if !slices.Equal(c.Playlist("p1"), []string{"queen"}) {
			t.Errorf("unexpected playlist %v", c.Playlist("p1"))
		}
	})

	t.Run("Validation Precedes Resolution", func(t *testing.T) {
		c := newCatalog()
		e := NewEngine(c, EngineOpts{})

		if _, err := e.AddToPlaylist(ctx, "Bohemian Rhapsody", PlaylistSelection{}, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := e.RemoveFromPlaylist(ctx, "Bohemian Rhapsody", "", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := e.PlaylistTracks(ctx, " ", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if len(c.Searches) != 0 {
			t.Errorf("expected no searches, got %v", c.Searches)
		}
	})

	t.Run("Progress Updates", func(t *testing.T) {
		c := newCatalog()
		e := NewEngine(c, EngineOpts{})

		t.Run("Buffered Channel Receives Updates", func(t *testing.T) {
			progress := make(chan ProgressUpdate, 32)
			if _, err := e.AddToLiked(ctx, "Bohemian Rhapsody\nnope", progress); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(progress)

			var phases []Phase
			for u := range progress {
				phases = append(phases, u.Phase)
			}
			if len(phases) < 3 || phases[0] != ResolveLines || phases[len(phases)-1] != ApplyMutation {
				t.Errorf("unexpected phases %v", phases)
			}
		})

		t.Run("Unread Channel Never Blocks", func(t *testing.T) {
			progress := make(chan ProgressUpdate)
			if _, err := e.AddToLiked(ctx, "Bohemian Rhapsody", progress); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		c := newCatalog()
		c.AddPlaylist("p1", "Mix", "a", "b")
		listing, err := NewEngine(c, EngineOpts{}).PlaylistTracks(ctx, "p1", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(listing.IDs(), []string{"a", "b"}) {
			t.Errorf("unexpected listing %v", listing.IDs())
		}
	})

	t.Run("NewLimiter", func(t *testing.T) {
		if NewLimiter(shared.ResolverConfig{}) != nil {
			t.Error("expected nil limiter for zero rate")
		}
		l := NewLimiter(shared.ResolverConfig{RequestsPerSecond: 5})
		if l == nil || l.Burst() != 1 {
			t.Errorf("expected limiter with burst 1, got %v", l)
		}
	})
}

func splitNonBlank(block string) []string {
	var out []string
	for _, l := range strings.FieldsFunc(block, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if strings.TrimSpace(l) != "" {
			out = append(out, strings.TrimSpace(l))
		}
	}
	return out
}
