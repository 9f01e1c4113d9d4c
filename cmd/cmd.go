package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// inputFlags are shared by every command that reads a pasted block of songs.
func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read song lines from a file (- for stdin)",
		},
		&cli.BoolFlag{
			Name:    "edit",
			Aliases: []string{"e"},
			Usage:   "Open the paste editor even when stdin is not a terminal",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the action summary as JSON",
		},
	}
}

// setupCommand creates a starter config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml from the template and print next steps",
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize textify with your Spotify account and save the tokens",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the account behind the stored token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistsCommand lists the current user's playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to show (0 for all)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Playlists,
	}
}

// likedCommand mutates liked songs from pasted lines.
func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "liked",
		Aliases: []string{"likes"},
		Usage:   "Add or remove pasted songs from your liked songs",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Like every song that resolves",
				ArgsUsage: "[line...]",
				Flags:     inputFlags(),
				Action:    r.LikedAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Unlike every song that resolves",
				ArgsUsage: "[line...]",
				Flags:     inputFlags(),
				Action:    r.LikedRemove,
			},
		},
	}
}

// playlistCommand mutates or lists a single playlist.
func playlistCommand(r *Runner) *cli.Command {
	idFlag := func(required bool) cli.Flag {
		return &cli.StringFlag{
			Name:     "id",
			Usage:    "Playlist ID",
			Required: required,
		}
	}

	return &cli.Command{
		Name:  "playlist",
		Usage: "Add or remove pasted songs from a playlist, or list its tracks",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add resolved songs to a playlist (--id) or a new playlist (--name)",
				ArgsUsage: "[line...]",
				Flags: append([]cli.Flag{
					idFlag(false),
					&cli.StringFlag{
						Name:  "name",
						Usage: "Create a new playlist with this name",
					},
				}, inputFlags()...),
				Action: r.PlaylistAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove resolved songs from a playlist",
				ArgsUsage: "[line...]",
				Flags:     append([]cli.Flag{idFlag(false)}, inputFlags()...),
				Action:    r.PlaylistRemove,
			},
			{
				Name:    "tracks",
				Aliases: []string{"show", "export"},
				Usage:   "Fetch every track of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					idFlag(false),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: table, csv, markdown, text, json",
						Value: "table",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the listing to a file instead of stdout",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Heading for markdown and text output (defaults to the playlist ID)",
					},
				},
				Action: r.PlaylistTracks,
			},
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API for web clients",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides [server] host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides [server] port and PORT)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive use.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive paste-and-apply UI",
		Action:  r.TUI,
	}
}
