package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/cheggaaa/pb/v3"
	"github.com/desertthunder/textify/internal/tasks"
	"golang.org/x/sync/errgroup"
)

const barTemplate = `{{ string . "prefix" }} {{ bar . }} {{ counters . }} {{ string . "line" }}`

// withProgress runs fn while a renderer drains its progress channel.
//
// fn owns the channel and it is closed when fn returns.
func (r *Runner) withProgress(ctx context.Context, fn func(progress chan<- tasks.ProgressUpdate) error) error {
	progress := make(chan tasks.ProgressUpdate, 50)
	renderer := newProgressRenderer(r.status, isTerminal(r.status), r.logger)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		for update := range progress {
			renderer.handle(update)
		}
		renderer.finish()
		return nil
	})
	g.Go(func() error {
		defer close(progress)
		return fn(progress)
	})
	return g.Wait()
}

// progressRenderer draws a bar for line resolution on terminals and logs everything else.
type progressRenderer struct {
	out    io.Writer
	tty    bool
	logger *log.Logger
	bar    *pb.ProgressBar
}

func newProgressRenderer(out io.Writer, tty bool, logger *log.Logger) *progressRenderer {
	return &progressRenderer{out: out, tty: tty, logger: logger}
}

func (p *progressRenderer) handle(update tasks.ProgressUpdate) {
	if update.Phase == tasks.ResolveLines && p.tty {
		if p.bar == nil {
			p.bar = pb.New(update.Total)
			p.bar.SetWriter(p.out)
			p.bar.SetTemplateString(barTemplate)
			p.bar.Set("prefix", "Resolving")
			p.bar.Start()
		}
		p.bar.Set("line", truncate(update.Line, 40))
		p.bar.SetCurrent(int64(update.Step))
		return
	}

	p.finish()
	if update.Phase == tasks.ResolveLines {
		p.logger.Debug(update.Message, "step", update.Step, "total", update.Total)
		return
	}
	p.logger.Info(update.Message, "phase", update.Phase)
}

func (p *progressRenderer) finish() {
	if p.bar != nil {
		p.bar.Set("line", "")
		p.bar.Finish()
		p.bar = nil
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return fmt.Sprintf("%s…", string(r[:n-1]))
}
