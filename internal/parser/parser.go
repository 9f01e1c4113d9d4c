// Package parser turns pasted song references into catalog search queries.
//
// Supported line shapes, checked in order:
//
//	Title - Artist / Artist - Title   searched verbatim, the catalog ranks both orderings
//	Title by Artist                   split into title and artist ("by" is case-insensitive)
//	Title                             searched verbatim
package parser

import (
	"regexp"
	"strings"

	"github.com/desertthunder/textify/internal/models"
)

const dashSeparator = " - "

var bySeparator = regexp.MustCompile(`(?i) by `)

// Lines splits a pasted block into trimmed, non-blank lines.
func Lines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Parse normalizes one line into a [models.ParsedQuery].
//
// A " by " line only splits when the separator occurs exactly once and both sides are non-empty;
// anything else is searched verbatim.
func Parse(rawLine string) models.ParsedQuery {
	line := strings.TrimSpace(rawLine)
	q := models.ParsedQuery{RawLine: line, SearchText: line}

	if strings.Contains(line, dashSeparator) {
		return q
	}

	if title, artist, ok := splitBy(line); ok {
		q.Title = title
		q.Artist = artist
		q.SearchText = title + " " + artist
	}
	return q
}

// ParseAll parses every non-blank line of raw.
func ParseAll(raw string) []models.ParsedQuery {
	lines := Lines(raw)
	queries := make([]models.ParsedQuery, 0, len(lines))
	for _, line := range lines {
		queries = append(queries, Parse(line))
	}
	return queries
}

func splitBy(line string) (title, artist string, ok bool) {
	matches := bySeparator.FindAllStringIndex(line, -1)
	if len(matches) != 1 {
		return "", "", false
	}

	title = strings.TrimSpace(line[:matches[0][0]])
	artist = strings.TrimSpace(line[matches[0][1]:])
	if title == "" || artist == "" {
		return "", "", false
	}
	return title, artist, true
}
