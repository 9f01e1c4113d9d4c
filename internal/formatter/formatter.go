// package formatter renders a playlist track listing as a table, CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/textify/internal/models"
	"github.com/desertthunder/textify/internal/shared"
)

// Format is an output format for a [models.TrackListing].
type Format string

const (
	Table    Format = "table"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
	JSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{Table, CSV, Markdown, Text, JSON}

// ParseFormat resolves a user-supplied format name. "md" and "txt" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return Table, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Render formats listing in f. title heads the Markdown and text output.
func Render(f Format, title string, listing models.TrackListing) ([]byte, error) {
	switch f {
	case Table:
		return []byte(ExportToTable(listing) + "\n"), nil
	case CSV:
		return ExportToCSV(listing)
	case Markdown:
		return ExportToMarkdown(title, listing)
	case Text:
		return ExportToText(title, listing)
	case JSON:
		return shared.MarshalJSON(listing, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// Write renders listing and writes it to w.
func Write(w io.Writer, f Format, title string, listing models.TrackListing) error {
	data, err := Render(f, title, listing)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", f, err)
	}
	return nil
}

// WriteFile renders listing into path.
func WriteFile(path string, f Format, title string, listing models.TrackListing) error {
	data, err := Render(f, title, listing)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ExportToCSV converts a listing to CSV with columns: ID, Title, Artist, Album, Duration, DurationMS, URI
func ExportToCSV(listing models.TrackListing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Artist", "Album", "Duration", "DurationMS", "URI"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range listing {
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			shared.FormatDuration(track.DurationMS),
			strconv.Itoa(track.DurationMS),
			track.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts a listing to a numbered Markdown list under a heading.
func ExportToMarkdown(title string, listing models.TrackListing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(listing))
	fmt.Fprintf(&buf, "**Duration**: %s\n\n", shared.FormatDuration(totalDuration(listing)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range listing {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Title, albumPart, shared.FormatDuration(track.DurationMS))
	}
	return buf.Bytes(), nil
}

// ExportToText converts a listing to plain text.
func ExportToText(title string, listing models.TrackListing) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", title)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(listing))
	for i, track := range listing {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist, track.Title)
	}
	return buf.Bytes(), nil
}

// ExportToTable renders a listing as a bordered terminal table.
func ExportToTable(listing models.TrackListing) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	muted := cell.Foreground(lipgloss.Color("#888888"))

	rows := make([][]string, 0, len(listing))
	for i, track := range listing {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			track.Title,
			track.Artist,
			track.Album,
			shared.FormatDuration(track.DurationMS),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		Headers("#", "Title", "Artist", "Album", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 0 || col == 4:
				return muted
			default:
				return cell
			}
		}).
		String()
}

func totalDuration(listing models.TrackListing) int {
	total := 0
	for _, t := range listing {
		total += t.DurationMS
	}
	return total
}
