package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/silence-with-sound/internal/app"
	"github.com/llehouerou/silence-with-sound/internal/config"
	"github.com/llehouerou/silence-with-sound/internal/errmsg"
	"github.com/llehouerou/silence-with-sound/internal/eventloop"
	"github.com/llehouerou/silence-with-sound/internal/instance"
	"github.com/llehouerou/silence-with-sound/internal/interval"
	"github.com/llehouerou/silence-with-sound/internal/player"
	"github.com/llehouerou/silence-with-sound/internal/scheduler"
	"github.com/llehouerou/silence-with-sound/internal/state"
	"github.com/llehouerou/silence-with-sound/internal/stderr"
	"github.com/llehouerou/silence-with-sound/internal/window"
)

// opError carries the failed operation to the top-level error message.
type opError struct {
	op  errmsg.Op
	err error
}

func (e *opError) Error() string { return errmsg.Format(e.op, e.err) }
func (e *opError) Unwrap() error { return e.err }

func fail(op errmsg.Op, err error) error {
	return &opError{op: op, err: err}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fail(errmsg.OpParseArgs, err)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fail(errmsg.OpLoadConfig, err)
	}

	if opts.TUI {
		return runShell(ctx, cfg, opts.Files)
	}
	return runBlocking(ctx, cfg, opts)
}

// openLog returns the log destination: the configured file, or fallback
// when none is set.
func openLog(cfg *config.Config, fallback func() (string, error)) (io.WriteCloser, error) {
	path := cfg.Log.File
	if path == "" {
		if fallback == nil {
			return nopCloser{os.Stderr}, nil
		}
		p, err := fallback()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func runBlocking(ctx context.Context, cfg *config.Config, opts cliOptions) error {
	logOut, err := openLog(cfg, nil)
	if err != nil {
		return fail(errmsg.OpLoadConfig, err)
	}
	defer logOut.Close()
	logger := cfg.NewLogger(logOut)
	slog.SetDefault(logger)

	w, err := window.Resolve(opts.Files[0], opts.Window)
	if err != nil {
		return fail(errmsg.OpResolveWindow, err)
	}

	dev, err := player.OpenDevice(beep.SampleRate(cfg.Output.SampleRate), cfg.Output.Buffer, logger)
	if err != nil {
		return fail(errmsg.OpOpenOutput, err)
	}
	defer dev.Close()

	pipeline := player.NewPipeline(dev.SampleRate(), logger)
	pipeline.Quality = cfg.Output.Quality
	clip, err := pipeline.Build(w)
	if err != nil {
		return fail(errmsg.OpLoadClip, err)
	}

	sink := dev.NewSink()
	defer sink.Close()

	s := &scheduler.Blocking{
		Clip:    clip,
		Output:  sink,
		Sampler: interval.NewSampler(),
		Range:   cfg.Idle.Range(),
		Once:    opts.TestRun,
		Logger:  logger.With(slog.String("source", w.Source)),
	}
	logger.Info("starting", slog.String("window", w.String()), slog.String("interval", s.Range.String()))

	err = s.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted", slog.Int("plays", s.Plays()))
		return nil
	}
	if err != nil {
		return fail(errmsg.OpPlayback, err)
	}
	return nil
}

func runShell(ctx context.Context, cfg *config.Config, files []string) error {
	logOut, err := openLog(cfg, config.DefaultLogFile)
	if err != nil {
		return fail(errmsg.OpLoadConfig, err)
	}
	defer logOut.Close()
	logger := cfg.NewLogger(logOut)
	slog.SetDefault(logger)

	// The audio backend may write to fd 2; keep it off the terminal.
	if err := stderr.Start(logger); err != nil {
		logger.Warn("stderr capture unavailable", slog.Any("error", err))
	}
	defer stderr.Stop()

	dev, err := player.OpenDevice(beep.SampleRate(cfg.Output.SampleRate), cfg.Output.Buffer, logger)
	if err != nil {
		return fail(errmsg.OpOpenOutput, err)
	}
	defer dev.Close()

	pipeline := player.NewPipeline(dev.SampleRate(), logger)
	pipeline.Quality = cfg.Output.Quality

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loop := eventloop.New()
	go func() { _ = loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loop.Done()
	}()

	base := instance.NewRegistry(loop, pipeline,
		func() (player.Output, error) { return dev.NewSink(), nil },
		instance.WithRange(cfg.Interactive.Range()),
		instance.WithLogger(logger),
	)

	var registry app.Registry = base
	initial := make([]state.Sound, len(files))
	for i, f := range files {
		initial[i] = state.Sound{Source: f}
	}
	if path, err := state.DefaultPath(); err != nil {
		logger.Warn("session store unavailable", slog.Any("error", err))
	} else {
		var store *state.Store
		store, initial = openSession(path, files, logger)
		if store != nil {
			defer store.Close()
			registry = &sessionRegistry{Registry: base, store: store, logger: logger}
		}
	}

	prog := tea.NewProgram(app.New(ctx, registry, initial), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := prog.Run()

	// Quitting from the shell already stopped everything; this covers
	// signals and crashes.
	if err := registry.DeactivateAll(loopCtx); err != nil {
		logger.Warn("shutdown", slog.Any("error", err))
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fail(errmsg.OpPlayback, runErr)
	}
	return nil
}
