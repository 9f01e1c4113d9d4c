// Package tasks turns a pasted block of song lines into library changes with real-time progress reporting.
//
// # Core Operations
//
//  1. [Resolver.Resolve] : one ranked search (limit 1) per [models.ParsedQuery]
//     - The top candidate wins unconditionally
//     - Empty results and provider failures both collapse to [shared.ErrTrackNotFound]
//
//  2. [Engine.Reconcile] : resolve every non-blank line of a block, strictly in order
//     - Folds per-line results into a [models.ResolutionOutcome]
//     - Never fails; an outcome with no resolved ids is the "nothing usable" signal
//
//  3. [Engine.Mutate] : apply add/remove against liked songs or a playlist
//     - Creates the playlist first when the target is a new name, aborting on failure
//     - Adds to an existing playlist only send ids it does not already hold
//
//  4. [Engine.FetchAll] : follow continuation references until exhausted
//     - Bounded loop; a failed page discards the partial listing
//
// # Actions
//
// [Engine.AddToLiked], [Engine.RemoveFromLiked], [Engine.AddToPlaylist], [Engine.RemoveFromPlaylist]
// and [Engine.PlaylistTracks] are the caller-facing entry points used by the CLI and HTTP server.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends use select with default so a slow
// or absent reader never blocks the action.
package tasks
