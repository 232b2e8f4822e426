package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/cube-vision/internal/config"
	"github.com/ironsheep/cube-vision/internal/frame"
	"github.com/ironsheep/cube-vision/internal/overlay"
	"github.com/ironsheep/cube-vision/internal/pipeline"
	"github.com/ironsheep/cube-vision/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	args := os.Args[1:]

	// Handle --version and --help before anything touches stdout
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("cube-vision %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	logger := initLogger(os.Getenv("CUBE_VISION_LOG_LEVEL") == "debug")
	logger.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("cube-vision starting")

	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, args, logger)
	case "run":
		err = runPipeline(ctx, args, logger)
	default:
		err = fmt.Errorf("unknown command %q, see cube-vision --help", cmd)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		logger.WithError(err).Fatal("cube-vision failed")
	}
}

func printUsage() {
	fmt.Println("cube-vision - power cube detection pipeline")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cube-vision [serve] [-config file] [-watch]")
	fmt.Println("      MCP server on stdin/stdout (default)")
	fmt.Println("  cube-vision run [options] image...")
	fmt.Println("      Replay still images through the pipeline as camera frames")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Run 'cube-vision run -h' for the run options.")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  CUBE_VISION_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println()
	fmt.Println("Logs are written to stderr; stdout carries the MCP protocol or raw frames.")
}

// initLogger returns a stderr logger: human-readable text at debug level, or
// JSON at info level.
func initLogger(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}

// paramFlags are the parameter options shared by both commands.
type paramFlags struct {
	path  string
	watch bool
}

func (p *paramFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.path, "config", "", "YAML parameter file loaded at start")
	fs.BoolVar(&p.watch, "watch", false, "reload the parameter file whenever it changes (needs -config)")
}

// registry builds the parameter registry and starts the watcher if asked.
func (p *paramFlags) registry(ctx context.Context, logger *logrus.Logger) (*config.Registry, error) {
	reg := config.NewRegistry()
	reg.AddObserver(config.LogObserver{Logger: logger})

	if p.path == "" {
		if p.watch {
			return nil, errors.New("-watch needs -config")
		}
		return reg, nil
	}
	if err := reg.LoadFile(p.path); err != nil {
		return nil, err
	}
	logger.WithField("path", p.path).Info("parameters loaded")

	if p.watch {
		w := config.NewWatcher(p.path, reg, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.WithError(err).Error("parameter watcher stopped")
			}
		}()
	}
	return reg, nil
}

func runServe(ctx context.Context, args []string, logger *logrus.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var pf paramFlags
	pf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg, err := pf.registry(ctx, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{Params: reg, Logger: logger, Version: Version})
	return srv.Run()
}

func runPipeline(ctx context.Context, args []string, logger *logrus.Logger) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var pf paramFlags
	pf.register(fs)
	width := fs.Int("width", 320, "emulated sensor width, 0 keeps the image width")
	height := fs.Int("height", 240, "emulated sensor height, 0 keeps the image height")
	format := fs.String("format", "yuyv", "frame pixel format: gray, rgb24 or yuyv")
	loop := fs.Bool("loop", false, "replay the images until interrupted")
	outDir := fs.String("out", "", "write output frames as PNG into this directory")
	rawPath := fs.String("raw", "", "stream output frames as packed YUYV to this file, - for stdout")
	lineColor := fs.String("line-color", "#00FF00", "segment color as #RRGGBB")
	title := fs.String("title", overlay.DefaultTitle, "first header line")
	serve := fs.Bool("serve", false, "also answer MCP requests on stdin/stdout to tune the live pipeline")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: cube-vision run [options] image...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return errors.New("run needs at least one image path")
	}
	if (*outDir == "") == (*rawPath == "") {
		return errors.New("give exactly one of -out or -raw")
	}
	if *serve && *rawPath == "-" {
		return errors.New("-serve and -raw - both need stdout")
	}

	pixFmt, err := frame.ParseFormat(*format)
	if err != nil {
		return err
	}
	stroke, err := overlay.ParseColor(*lineColor)
	if err != nil {
		return err
	}

	reg, err := pf.registry(ctx, logger)
	if err != nil {
		return err
	}

	src, err := frame.NewFileSource(fs.Args(), frame.FileSourceOptions{
		Width:  *width,
		Height: *height,
		Format: pixFmt,
		Loop:   *loop,
	})
	if err != nil {
		return err
	}

	sink, closeSink, err := openSink(*outDir, *rawPath)
	if err != nil {
		return err
	}
	defer closeSink()

	compositor := overlay.NewCompositor()
	compositor.Title = *title
	compositor.LineColor = stroke
	p := pipeline.New(compositor)

	if *serve {
		srv := server.New(server.Options{Params: reg, Pipeline: p, Logger: logger, Version: Version})
		go func() {
			if err := srv.Run(); err != nil {
				logger.WithError(err).Error("server stopped")
			}
		}()
	}

	runner := pipeline.NewRunner(src, sink, reg, p, logger)
	err = runner.Run(ctx)

	stats := runner.Stats()
	logger.WithFields(logrus.Fields{
		"processed":   stats.Processed,
		"failed":      stats.Failed,
		"outstanding": src.Outstanding(),
	}).Info("pipeline stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openSink(outDir, rawPath string) (frame.Sink, func(), error) {
	if outDir != "" {
		s, err := frame.NewDirSink(outDir)
		return s, func() {}, err
	}
	if rawPath == "-" {
		return &frame.RawSink{W: os.Stdout}, func() {}, nil
	}
	f, err := os.Create(rawPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", rawPath, err)
	}
	return &frame.RawSink{W: f}, func() { f.Close() }, nil
}
