package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/textify/internal/server"
	"github.com/desertthunder/textify/internal/shared"
	"github.com/desertthunder/textify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
//
// Each request carries its own bearer token; the configured client credentials only back /login and /callback.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.backend == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s",
			shared.ErrMissingCredentials, r.configPathOrDefault())
	}

	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	api := server.NewAPI(r.backend, tasks.NewLimiter(r.config.Resolver), r.logger)

	var login server.Handler
	if r.oauth != nil {
		login = server.NewLoginHandler(r.oauth.GetOAuthConfig(), r.logger)
	}

	handler := server.NewHandler(server.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         r.logger,
	}, api, login)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, cfg.Addr(), handler, r.logger)
}
