package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/textify/internal/server"
	"github.com/desertthunder/textify/internal/services"
	"github.com/desertthunder/textify/internal/shared"
	"github.com/desertthunder/textify/internal/tasks"
	"github.com/desertthunder/textify/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	oauth      services.OAuthService
	backend    server.BackendFunc
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
	status     io.Writer
	engine     *tasks.Engine
	edit       editFunc
}

// editFunc opens the paste editor and returns the submitted text.
type editFunc func(ctx context.Context, title string, in io.Reader, out io.Writer) (string, error)

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	OAuth      services.OAuthService
	Backend    server.BackendFunc
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
	Status     io.Writer // progress bars and prompts; defaults to stderr
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{}
	r.configure(opts)
	return r
}

// configure (re)binds r to opts, filling defaults for anything unset.
func (r *Runner) configure(opts RunnerOpts) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}

	r.config = opts.Config
	r.configPath = opts.ConfigPath
	r.service = opts.Service
	r.oauth = opts.OAuth
	r.backend = opts.Backend
	r.logger = opts.Logger
	r.input = opts.Input
	r.output = opts.Output
	r.status = opts.Status
	r.engine = nil
	if r.edit == nil {
		r.edit = func(ctx context.Context, title string, in io.Reader, out io.Writer) (string, error) {
			return ui.Edit(ctx, title, "", in, out)
		}
	}

	if opts.Service != nil {
		r.engine = tasks.NewEngine(opts.Service, tasks.EngineOpts{
			Logger:  opts.Logger,
			Limiter: tasks.NewLimiter(opts.Config.Resolver),
		})
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, likedCommand, playlistCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireService fails early when no provider could be configured.
func (r *Runner) requireService() error {
	if r.service == nil || r.engine == nil {
		return fmt.Errorf("%w: set Spotify client_id and client_secret in %s, then run 'textify auth login'",
			shared.ErrMissingCredentials, r.configPathOrDefault())
	}
	return nil
}

func (r *Runner) configPathOrDefault() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

// readInput collects the pasted block from, in order: --file, positional arguments, --edit,
// piped stdin, and finally the interactive editor when stdin is a terminal.
func (r *Runner) readInput(ctx context.Context, cmd *cli.Command, title string) (string, error) {
	if path := cmd.String("file"); path != "" {
		if path == "-" {
			return r.readAll(r.input)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		return string(data), nil
	}

	if args := cmd.Args().Slice(); len(args) > 0 {
		return strings.Join(args, "\n"), nil
	}

	if cmd.Bool("edit") || isTerminal(r.input) {
		return r.edit(ctx, title, r.input, r.status)
	}
	return r.readAll(r.input)
}

func (r *Runner) readAll(in io.Reader) (string, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read stdin: %v", shared.ErrInvalidInput, err)
	}
	return string(data), nil
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
