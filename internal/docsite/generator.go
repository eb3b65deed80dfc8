package docsite

import (
	"context"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/labrunner/internal/logfields"
	"git.home.luguber.info/inful/labrunner/internal/toolexec"
)

// Generator invokes the external site generator. Build and serve are pure
// pass-throughs: labrunner supplies the site file and forwards the exit
// status, nothing more.
type Generator struct {
	exec   toolexec.Executor
	stdout io.Writer
	stderr io.Writer
}

// NewGenerator builds an invoker around an executor.
func NewGenerator(exec toolexec.Executor) *Generator {
	if exec == nil {
		exec = toolexec.NewExecutor()
	}
	return &Generator{exec: exec}
}

// WithOutput redirects generator output, mainly for tests.
func (g *Generator) WithOutput(stdout, stderr io.Writer) *Generator {
	g.stdout = stdout
	g.stderr = stderr
	return g
}

// Build renders the site once.
func (g *Generator) Build(ctx context.Context, site *Site) error {
	return g.run(ctx, site, []string{site.Generator, "build", "-f", site.Path})
}

// Serve runs the generator's live-reload server until ctx is canceled.
// addr is optional.
func (g *Generator) Serve(ctx context.Context, site *Site, addr string) error {
	argv := []string{site.Generator, "serve", "-f", site.Path}
	if addr != "" {
		argv = append(argv, "-a", addr)
	}
	return g.run(ctx, site, argv)
}

func (g *Generator) run(ctx context.Context, site *Site, argv []string) error {
	slog.Info("Invoking site generator",
		logfields.Tool(site.Generator),
		logfields.Path(site.Path))

	_, err := g.exec.Run(ctx, toolexec.Command{Argv: argv}, toolexec.Options{
		Stdout: g.stdout,
		Stderr: g.stderr,
	})
	return err
}
