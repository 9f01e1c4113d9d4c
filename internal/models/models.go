// package models defines the data model for textify
package models

import "strings"

// ParsedQuery is a single pasted line normalized into a catalog search.
//
// Title and Artist are only set when the line split unambiguously on " by ".
type ParsedQuery struct {
	RawLine    string `json:"raw_line"`
	SearchText string `json:"search_text"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
}

// HasParts reports whether the line was split into title and artist.
func (q ParsedQuery) HasParts() bool {
	return q.Title != "" && q.Artist != ""
}

// ResolvedTrack is the catalog identifier chosen for one line.
type ResolvedTrack struct {
	ID string `json:"id"`
}

// ResolutionOutcome accumulates the result of resolving a pasted block.
//
// Every non-blank line lands in exactly one of the two slices, in input order.
// Duplicate identifiers are kept.
type ResolutionOutcome struct {
	ResolvedIDs    []string `json:"resolved_ids"`
	UnmatchedLines []string `json:"unmatched_lines"`
}

// Resolved returns a copy of o with id appended to the resolved identifiers.
func (o ResolutionOutcome) Resolved(id string) ResolutionOutcome {
	o.ResolvedIDs = append(o.ResolvedIDs[:len(o.ResolvedIDs):len(o.ResolvedIDs)], id)
	return o
}

// Unmatched returns a copy of o with line appended to the unmatched lines.
func (o ResolutionOutcome) Unmatched(line string) ResolutionOutcome {
	o.UnmatchedLines = append(o.UnmatchedLines[:len(o.UnmatchedLines):len(o.UnmatchedLines)], line)
	return o
}

// Total is the number of lines the outcome accounts for.
func (o ResolutionOutcome) Total() int {
	return len(o.ResolvedIDs) + len(o.UnmatchedLines)
}

// Empty reports whether no line resolved.
func (o ResolutionOutcome) Empty() bool {
	return len(o.ResolvedIDs) == 0
}

// Track is a flattened catalog track.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"` // contributing artists joined with ", "
	Album      string `json:"album"`
	DurationMS int    `json:"duration_ms"`
	URI        string `json:"uri,omitempty"`
}

// JoinArtists joins artist names for display, keeping their order.
func JoinArtists(names []string) string {
	return strings.Join(names, ", ")
}

// TrackListing is the complete, ordered track list of a playlist.
type TrackListing []Track

// IDs returns the identifiers of the listing in order.
func (l TrackListing) IDs() []string {
	ids := make([]string, 0, len(l))
	for _, t := range l {
		ids = append(ids, t.ID)
	}
	return ids
}

// TrackPage is one page of a playlist listing.
//
// Next is the provider's opaque continuation reference; empty means this was the last page.
type TrackPage struct {
	Items []Track
	Next  string
	Total int
}

// Playlist represents a playlist owned or followed by the user.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// User is the account behind a credential.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}
