package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
	tu "github.com/desertthunder/textify/internal/testing"
)

func sampleListing() models.TrackListing {
	return models.TrackListing{
		{ID: "track1", Title: "Song One", Artist: "Artist One, Guest", Album: "Album One", DurationMS: 180000, URI: "spotify:track:track1"},
		{ID: "track2", Title: "Song Two", Artist: "Artist Two", DurationMS: 245500, URI: "spotify:track:track2"},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleListing())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"ID,Title,Artist,Album,Duration,DurationMS,URI",
			`track1,Song One,"Artist One, Guest",Album One,3:00,180000,spotify:track:track1`,
			"track2,Song Two,Artist Two,,4:05,245500",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("CSV missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown("Road Trip", sampleListing())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Road Trip",
			"**Tracks**: 2",
			"**Duration**: 7:05",
			"1. Artist One, Guest - Song One (Album One) [3:00]",
			"2. Artist Two - Song Two [4:05]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText("Road Trip", sampleListing())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Playlist: Road Trip\nTracks: 2\n\n") {
			t.Errorf("unexpected text header: %s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song Two") {
			t.Errorf("text missing second track: %s", output)
		}
	})

	t.Run("ExportToTable", func(t *testing.T) {
		output := ExportToTable(sampleListing())
		for _, want := range []string{"Title", "Song One", "Artist Two", "4:05"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Empty Listing", func(t *testing.T) {
		for _, f := range Formats {
			if _, err := Render(f, "Empty", models.TrackListing{}); err != nil {
				t.Errorf("%s: unexpected error %v", f, err)
			}
		}
	})
}

func TestRender(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		tests := []struct {
			in   string
			want Format
		}{
			{"", Table},
			{"TABLE", Table},
			{"csv", CSV},
			{"md", Markdown},
			{"markdown", Markdown},
			{"txt", Text},
			{"json", JSON},
		}
		for _, tc := range tests {
			got, err := ParseFormat(tc.in)
			if err != nil || got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
		}

		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := Render(JSON, "", sampleListing())
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		var got []models.Track
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 2 || got[1].DurationMS != 245500 {
			t.Errorf("unexpected decoded listing %+v", got)
		}
	})

	t.Run("Write Error", func(t *testing.T) {
		if err := Write(&tu.FWriter{}, Text, "x", sampleListing()); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		if err := WriteFile(path, CSV, "x", sampleListing()); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "track2") {
			t.Error("expected file to contain tracks")
		}
	})
}
