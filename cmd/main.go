package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/textify/internal/server"
	"github.com/desertthunder/textify/internal/services"
	"github.com/desertthunder/textify/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNoValidTracks) {
			logger.Warn(err.Error())
			os.Exit(0)
		}
		logger.Fatalf("%v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "textify",
		Usage:   "Turn pasted song lists into Spotify liked songs and playlists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TEXTIFY_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides [log] level",
			},
		},
		Before:   r.bootstrap,
		Commands: r.register(),
	}
}

// bootstrap loads configuration and binds the Spotify service before any command runs.
func (r *Runner) bootstrap(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return ctx, err
	}

	level := cmd.String("log-level")
	if level == "" {
		level = config.Log.Level
	}
	if err := shared.SetLogLevel(r.logger, level); err != nil {
		return ctx, err
	}

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Logger:     r.logger,
		Input:      r.input,
		Output:     r.output,
		Status:     r.status,
	}

	svc, err := newSpotifyService(ctx, path, config, r.logger)
	if err != nil {
		return ctx, err
	}
	if svc != nil {
		opts.Service = svc
		opts.OAuth = svc
		opts.Backend = func(ctx context.Context, accessToken string) (server.Backend, error) {
			bound, err := svc.WithToken(ctx, accessToken)
			if err != nil {
				return nil, err
			}
			return bound, nil
		}
	} else {
		r.logger.Debug("spotify credentials not configured", "config", path)
	}

	r.configure(opts)
	return ctx, nil
}

// newSpotifyService builds the Spotify client from config, or returns nil when no client credentials are set.
//
// A stored token is bound immediately and every refreshed token is written back to path.
func newSpotifyService(ctx context.Context, path string, config *shared.Config, logger *log.Logger) (*services.SpotifyService, error) {
	creds := config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, nil
	}

	svc, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return nil, err
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := config.Credentials.Spotify.Update(token); err != nil {
			logger.Warn("ignoring refreshed token", "error", err)
			return
		}
		if err := shared.SaveConfig(path, config); err != nil {
			logger.Warn("failed to persist refreshed token", "error", err)
			return
		}
		logger.Debug("refreshed token saved", "config", path)
	})

	if token := creds.Token(); token != nil {
		if err := svc.OAuthenticate(ctx, token); err != nil {
			return nil, err
		}
	}
	return svc, nil
}
