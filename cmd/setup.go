package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/textify/internal/shared"
	"github.com/desertthunder/textify/internal/ui"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file when none exists and prints the next steps.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := r.configPathOrDefault()

	if _, err := os.Stat(path); err == nil {
		r.logger.Info("config file already exists", "path", path)
		r.writePlain("%s\n", ui.Styles.Warn(fmt.Sprintf("Config already exists at %s", path)))
	} else {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("✓ Created %s", path)))
	}

	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return err
	}

	r.writePlainln("Next steps:")
	step := 1
	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		r.writePlain("%d. Set client_id and client_secret under [credentials.spotify] (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n", step)
		step++
		r.writePlain("%d. Register %s as a redirect URI for your Spotify app\n", step, config.Credentials.Spotify.RedirectURI)
		step++
	}
	if config.Credentials.Spotify.Token() == nil {
		r.writePlain("%d. Run 'textify auth login'\n", step)
		step++
	}
	r.writePlain("%d. Paste some songs: textify liked add < songs.txt\n", step)
	return nil
}
