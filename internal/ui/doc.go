// Package ui implements the terminal interfaces using bubbletea's Elm architecture.
//
// The TUI walks through one action at a time:
//  1. [ActionView] : Pick an action (add/remove liked songs, add/remove playlist tracks, show a playlist)
//  2. [PasteView] : Paste one song per line into a textarea
//  3. [PlaylistView] : Pick the target playlist, or "new playlist" for adds
//  4. [NameView] : Name the playlist to create
//  5. [RunView] : Watch per-line resolution progress
//  6. [ResultView] : Review matched and unmatched lines, or the playlist listing
//
// [Editor] is the paste view on its own, used by the CLI's --edit flag.
//
// Progress flows through a channel from [tasks.Engine]; the model re-subscribes after each update.
package ui
