// Command autoitem exports one object's animation from a scene document as
// four REAPER automation items.
//
//	autoitem -scene testdata/flyby.yaml -object Cube -boundary Room -tempo 120 -out /abs/dir -project myproject
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/reaperio/autoitem/internal/config"
	"github.com/reaperio/autoitem/internal/export"
	"github.com/reaperio/autoitem/internal/logging"
	"github.com/reaperio/autoitem/internal/scene"
)

const maxProjectName = 100

type options struct {
	scenePath string
	object    string
	boundary  string
	tempo     int
	outputDir string
	project   string
	logLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "autoitem: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.New()
	if err != nil {
		return err
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}

	logger := logging.New(stderr, opts.logLevel)

	sc, err := scene.Load(opts.scenePath)
	if err != nil {
		return err
	}

	project := export.SanitizeName(opts.project, maxProjectName)
	outputDir := opts.outputDir
	if outputDir != "" && !filepath.IsAbs(outputDir) {
		if abs, err := filepath.Abs(outputDir); err == nil {
			outputDir = abs
		}
	}

	job, err := export.NewJob(sc, opts.object, opts.boundary, opts.tempo, outputDir, project)
	if err != nil {
		return err
	}

	summary, err := export.Run(ctx, job, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, summary.Message())
	return nil
}

func parseFlags(args []string, cfg config.Config, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("autoitem", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.scenePath, "scene", "", "scene document (.yaml, .yml or .toml)")
	fs.StringVar(&opts.object, "object", "", "name of the moving object")
	fs.StringVar(&opts.boundary, "boundary", "", "name of the boundary object")
	fs.IntVar(&opts.tempo, "tempo", cfg.DefaultTempo(), "destination tempo in BPM (1-1024)")
	fs.StringVar(&opts.outputDir, "out", cfg.DefaultOutputDir(), "output directory")
	fs.StringVar(&opts.project, "project", "myproject", "project name used as the file prefix")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	switch {
	case opts.scenePath == "":
		return nil, errors.New("-scene is required")
	case opts.object == "":
		return nil, errors.New("-object is required")
	case opts.boundary == "":
		return nil, errors.New("-boundary is required")
	case opts.outputDir == "":
		return nil, errors.New("-out is required")
	}
	return opts, nil
}
