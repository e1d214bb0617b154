package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/llehouerou/silence-with-sound/internal/window"
)

const usage = `Usage:
  silence-with-sound [options] FILE
  silence-with-sound --tui [--config PATH] [FILE...]

Plays FILE over and over with random pauses in between.

Options:
`

var (
	errNoFile      = errors.New("no audio file given")
	errTooManyArgs = errors.New("exactly one audio file expected")
	errEndAndLen   = errors.New("--audio-end and --audio-duration are mutually exclusive")
)

// cliOptions is the parsed command line.
type cliOptions struct {
	Window     window.Options
	TestRun    bool
	TUI        bool
	ConfigPath string
	Files      []string
}

// durationFlag is an optional duration: nil until the flag is given.
type durationFlag struct{ p **time.Duration }

func (f durationFlag) String() string {
	if f.p == nil || *f.p == nil {
		return ""
	}
	return (**f.p).String()
}

func (f durationFlag) Set(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*f.p = &d
	return nil
}

type floatFlag struct{ p **float64 }

func (f floatFlag) String() string {
	if f.p == nil || *f.p == nil {
		return ""
	}
	return strconv.FormatFloat(**f.p, 'g', -1, 64)
}

func (f floatFlag) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f.p = &v
	return nil
}

// parseArgs parses args, allowing flags before and after file arguments.
func parseArgs(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions

	fs := flag.NewFlagSet("silence-with-sound", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.Var(floatFlag{&opts.Window.Volume}, "volume", "volume `factor`, 1.0 keeps the original level")
	fs.Var(durationFlag{&opts.Window.Start}, "audio-start", "start playing at this `offset` (e.g. 1.5s)")
	fs.Var(durationFlag{&opts.Window.End}, "audio-end", "stop playing at this `offset`")
	fs.Var(durationFlag{&opts.Window.Duration}, "audio-duration", "play this `long` from the start offset")
	fs.BoolVar(&opts.TestRun, "test-run", false, "play once and exit")
	fs.BoolVar(&opts.TUI, "tui", false, "open the interactive shell")
	fs.StringVar(&opts.ConfigPath, "config", "", "read settings from this `file` too")

	for {
		if err := fs.Parse(args); err != nil {
			return cliOptions{}, err
		}
		if fs.NArg() == 0 {
			break
		}
		// After "--" everything is a file, even if it starts with '-'.
		if consumed := len(args) - fs.NArg(); consumed > 0 && args[consumed-1] == "--" {
			opts.Files = append(opts.Files, fs.Args()...)
			break
		}
		opts.Files = append(opts.Files, fs.Arg(0))
		args = fs.Args()[1:]
	}

	if opts.Window.End != nil && opts.Window.Duration != nil {
		return cliOptions{}, errEndAndLen
	}
	if opts.TUI {
		return opts, nil
	}
	switch len(opts.Files) {
	case 0:
		return cliOptions{}, errNoFile
	case 1:
		return opts, nil
	default:
		return cliOptions{}, errTooManyArgs
	}
}
