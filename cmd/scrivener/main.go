// Package main is the entry point for the scrivener document viewer.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dshills/scrivener/internal/config"
	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/renderer/backend"
	"github.com/dshills/scrivener/internal/renderer/core"
	"github.com/dshills/scrivener/internal/text"
	"github.com/dshills/scrivener/internal/view"
	"github.com/dshills/scrivener/internal/viewport"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	logPath    string
	highlight  string
	wrap       bool
	file       string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	paths := configPaths(opts.configPath)
	cfg, err := config.Load(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.wrap {
		cfg.Heights.LineWrapping = true
	}

	logger, closeLog, err := openLog(opts.logPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	data, err := os.ReadFile(opts.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	term, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := term.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize terminal: %v\n", err)
		return 1
	}
	defer term.Shutdown()

	v := &viewer{
		term:      term,
		screen:    backend.NewBufferedBackend(term),
		log:       logger,
		doc:       text.Of(string(data)),
		highlight: opts.highlight,
	}
	if err := v.rebuild(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	watcher, err := config.NewWatcher(config.Loader{Paths: paths, EnvPrefix: config.DefaultEnvPrefix}, 0)
	if err != nil {
		logger.Warn().Err(err).Msg("config reload disabled")
	} else {
		defer watcher.Close()
		go v.follow(watcher, opts.wrap)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		term.Shutdown()
	}()

	v.screen.OnResize(func(int, int) { v.resize() })
	term.OnKey(func(k backend.Key) {
		if k == backend.KeyQuit {
			term.Shutdown()
			return
		}
		v.scroll(k)
	})
	term.Run()
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (TOML or YAML)")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logPath, "log", "", "Write logs to this file")
	flag.StringVar(&opts.highlight, "highlight", "", "Highlight every occurrence of this text")
	flag.BoolVar(&opts.wrap, "wrap", false, "Wrap long lines")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Scrivener - incremental document viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: scrivener [options] file\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys: j/k or arrows scroll, space/PgDn pages, g/G jump, q quits\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("Scrivener %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.file = flag.Arg(0)
	return opts
}

// configPaths returns the user configuration file followed by the one
// given on the command line.
func configPaths(explicit string) []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "scrivener", "config.toml"))
	}
	if explicit != "" {
		paths = append(paths, explicit)
	}
	return paths
}

func openLog(path string, cfg config.Config) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening log: %w", err)
	}
	level := cfg.LogLevel()
	if level == zerolog.Disabled {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(f).With().Timestamp().Logger().Level(level)
	return logger, func() { _ = f.Close() }, nil
}

// viewer shows one document on the terminal.
type viewer struct {
	mu        sync.Mutex
	term      *backend.Terminal
	screen    *backend.BufferedBackend
	log       zerolog.Logger
	doc       text.Text
	highlight string
	cfg       config.Config
	view      *view.View
}

func (v *viewer) visible(cfg config.Config) (viewport.Rect, int) {
	w, h := v.screen.Size()
	return viewport.Rect{
		Bottom: float64(h) * cfg.Heights.LineHeight,
		Right:  float64(w) * cfg.Heights.CharWidth,
	}, w
}

// rebuild replaces the view with one using cfg, keeping the scroll
// position.
func (v *viewer) rebuild(cfg config.Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	reg := content.NewRegistry()
	reg.DefineClass("match", core.DefaultStyle().WithAttributes(core.AttrReverse))

	visible, width := v.visible(cfg)
	next, err := view.New(v.doc, nil, view.Options{
		Config:   &cfg,
		Logger:   &v.log,
		Registry: reg,
		Width:    width,
		Visible:  visible,
	})
	if err != nil {
		return err
	}
	if v.highlight != "" {
		set := next.NewSet(matches(v.doc, v.highlight)...)
		if err := next.Dispatch(view.Transaction{Decorations: []*decoration.Set{set}}); err != nil {
			return err
		}
	}
	if v.view != nil {
		if err := next.ScrollTo(v.view.Visible().Top); err != nil {
			return err
		}
	}
	v.cfg, v.view = cfg, next
	v.paint()
	return nil
}

// matches marks every occurrence of s in doc.
func matches(doc text.Text, s string) []decoration.Decoration {
	src := doc.String()
	var out []decoration.Decoration
	for at := 0; ; {
		i := strings.Index(src[at:], s)
		if i < 0 {
			return out
		}
		from := at + i
		out = append(out, decoration.Must(decoration.NewMark(from, from+len(s), decoration.Spec{Class: "match"})))
		at = from + len(s)
	}
}

func (v *viewer) follow(w *config.Watcher, wrap bool) {
	for {
		select {
		case cfg, ok := <-w.Updates():
			if !ok {
				return
			}
			if wrap {
				cfg.Heights.LineWrapping = true
			}
			if err := v.rebuild(cfg); err != nil {
				v.log.Error().Err(err).Msg("applying reloaded config")
				continue
			}
			v.log.Info().Msg("config reloaded")
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			v.log.Warn().Err(err).Msg("config watch")
		}
	}
}

func (v *viewer) resize() {
	v.mu.Lock()
	defer v.mu.Unlock()
	visible, width := v.visible(v.cfg)
	visible.Top = v.view.Visible().Top
	visible.Bottom += visible.Top
	if err := v.view.Resize(width, v.cfg.Heights.LineWrapping); err != nil {
		v.log.Error().Err(err).Msg("resize")
	}
	if err := v.view.SetVisible(visible); err != nil {
		v.log.Error().Err(err).Msg("resize")
	}
	v.paint()
}

func (v *viewer) scroll(k backend.Key) {
	v.mu.Lock()
	defer v.mu.Unlock()
	vis := v.view.Visible()
	lh := v.cfg.Heights.LineHeight
	top := vis.Top
	switch k {
	case backend.KeyUp:
		top -= lh
	case backend.KeyDown:
		top += lh
	case backend.KeyPageUp:
		top -= vis.Height() - lh
	case backend.KeyPageDown:
		top += vis.Height() - lh
	case backend.KeyHome:
		top = 0
	case backend.KeyEnd:
		top = v.view.ContentHeight()
	}
	if err := v.view.ScrollTo(top); err != nil {
		v.log.Error().Err(err).Msg("scroll")
	}
	v.paint()
}

// paint must be called with v.mu held.
func (v *viewer) paint() {
	rows, err := v.view.Paint(v.screen)
	if err != nil {
		v.log.Error().Err(err).Msg("paint")
		return
	}
	v.log.Debug().Int("rows", rows).Int("cells", v.screen.Flushed()).Msg("painted")
}
