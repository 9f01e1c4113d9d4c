// Package models defines the data passed between the textify packages.
//
// Resolution types:
//   - [ParsedQuery] : one pasted line normalized into search text (and, for "Title by Artist" lines, title and artist)
//   - [ResolvedTrack] : the catalog identifier a line resolved to
//   - [ResolutionOutcome] : resolved identifiers and unmatched lines for one pasted block
//
// Catalog types:
//   - [Track] : a flattened track row (artists joined for display)
//   - [TrackListing] : every track of a playlist, in playlist order
//   - [TrackPage] : one page of a playlist listing plus the provider's continuation reference
//   - [Playlist], [User] : collection targets and the authenticated account
package models
