package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	vmdl "github.com/vmdl-lang/go"
	"github.com/vmdl-lang/go/internal/watch"
)

const defaultPath = "examples/config.vmdl"

var version = "dev"

// exampleLookups are printed after every rendering when present.
var exampleLookups = []struct {
	label string
	path  string
}{
	{"Project", "Project"},
	{"Route", "Route"},
	{"Staging Route", "Environments.Staging.Route"},
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "vmdl",
		Usage:     "parse a VMDL file and print it as JSON, text, YAML or TOML",
		ArgsUsage: "[file]",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(vmdl.FormatJSON),
				Usage:   "output format: json, text, yaml or toml",
				EnvVars: []string{"VMDL_FORMAT"},
			},
			&cli.BoolFlag{
				Name:    "indent-context",
				Usage:   "close object contexts on dedent instead of keeping them open",
				EnvVars: []string{"VMDL_INDENT_CONTEXT"},
			},
			&cli.StringSliceFlag{
				Name:    "get",
				Aliases: []string{"g"},
				Usage:   "print the value at a dotted path (repeatable; every repeat must use the same form, -g or --get)",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "re-render whenever the file changes",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Value: 100 * time.Millisecond,
				Usage: "quiet period before re-rendering in watch mode",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "enable debug logging",
				EnvVars: []string{"VMDL_VERBOSE"},
			},
		},
		Action: run,
	}
}

// renderer holds everything needed to turn the input file into output.
type renderer struct {
	path   string
	format string
	gets   []string
	parser *vmdl.Parser
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))

	policy := vmdl.ContextDeepen
	if c.Bool("indent-context") {
		policy = vmdl.ContextIndent
	}

	path := c.Args().First()
	if path == "" {
		path = defaultPath
	}

	r := &renderer{
		path:   path,
		format: c.String("format"),
		gets:   c.StringSlice("get"),
		parser: vmdl.NewParser().WithContextPolicy(policy).WithLogger(logger),
		out:    c.App.Writer,
		errOut: c.App.ErrWriter,
		logger: logger,
	}

	fmt.Fprintf(r.out, "Parsing VMDL file: %s\n", path)

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file does not exist: %s", path)
	}

	if !c.Bool("watch") {
		return r.render()
	}

	if err := r.render(); err != nil {
		logger.Error("initial render failed", "error", err)
	}
	return r.watch(c.Context, c.Duration("debounce"))
}

func (r *renderer) watch(ctx context.Context, debounce time.Duration) error {
	w, err := watch.New(watch.Config{Path: r.path, Debounce: debounce}, r.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	r.logger.Info("watching for changes", "path", r.path)
	return w.Run(ctx, r.render)
}

func (r *renderer) render() error {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	root, err := r.parser.Parse(string(content))
	if err != nil {
		return fmt.Errorf("error parsing VMDL: %w", err)
	}

	format, err := vmdl.ParseFormat(r.format)
	if err != nil {
		fmt.Fprintf(r.errOut, "Unsupported format: %s. Using JSON instead.\n", r.format)
		format = vmdl.FormatJSON
	}

	rendered, err := vmdl.Render(root, format)
	if err != nil {
		return fmt.Errorf("error rendering %s: %w", format, err)
	}

	fmt.Fprintf(r.out, "\nParsed data as %s:\n", r.format)
	fmt.Fprintln(r.out, rendered)

	fmt.Fprintln(r.out, "\nAccessing specific values:")
	for _, lookup := range exampleLookups {
		if s, ok := leafAt(root, lookup.path); ok {
			fmt.Fprintf(r.out, "%s: %s\n", lookup.label, s)
		}
	}
	for _, path := range r.gets {
		v, ok := root.Lookup(path)
		switch {
		case !ok:
			fmt.Fprintf(r.out, "%s: (not found)\n", path)
		case v.IsContainer():
			fmt.Fprintf(r.out, "%s: %s\n", path, vmdl.ToJSON(v))
		default:
			fmt.Fprintf(r.out, "%s: %s\n", path, v)
		}
	}
	return nil
}

func leafAt(root vmdl.Value, path string) (string, bool) {
	v, ok := root.Lookup(path)
	if !ok {
		return "", false
	}
	return v.AsString()
}
