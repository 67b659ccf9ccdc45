package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if lvl := Default().LogLevel(); lvl != zerolog.Disabled {
		t.Errorf("LogLevel = %v, want disabled", lvl)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		path   string
	}{
		{"negative margin", func(c *Config) { c.Viewport.Margin = -1 }, "viewport.margin"},
		{"cover order", func(c *Config) { c.Viewport.MinCoverMargin = 300 }, "viewport.min_cover_margin"},
		{"cover above margin", func(c *Config) { c.Viewport.MaxCoverMargin = 2000 }, "viewport.max_cover_margin"},
		{"leaf size", func(c *Config) { c.Decorations.LeafSize = 1 }, "decorations.leaf_size"},
		{"line length", func(c *Config) { c.Heights.LineLength = 4 }, "heights.line_length"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"passes", func(c *Config) { c.View.MaxMeasurePasses = 0 }, "view.max_measure_passes"},
		{"margin split", func(c *Config) { c.Viewport.MarginSplit = 1.5 }, "viewport.margin_split"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() = %v, want ErrValidationFailed", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Path != tt.path {
				t.Errorf("Path = %q, want %q", ve.Path, tt.path)
			}
		})
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scrivener.toml", `
[viewport]
margin = 1500

[heights]
line_height = 16.5
line_wrapping = true

[log]
level = "debug"
`)
	cfg, err := (&Loader{Paths: []string{path}}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	want.Viewport.Margin = 1500
	want.Heights.LineHeight = 16.5
	want.Heights.LineWrapping = true
	want.Log.Level = "debug"
	if cfg != want {
		t.Errorf("Load = %+v, want %+v", cfg, want)
	}
	if cfg.LogLevel() != zerolog.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel())
	}
}

func TestLoadLayerOrder(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.toml", "[content]\nmax_text_run = 100\nmax_join_length = 50\n")
	over := writeFile(t, dir, "local.yaml", "content:\n  max_join_length: 80\nsurface:\n  tab_width: 8\n")

	cfg, err := (&Loader{Paths: []string{base, filepath.Join(dir, "missing.toml"), over}}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Content.MaxTextRun != 100 {
		t.Errorf("MaxTextRun = %d, want 100", cfg.Content.MaxTextRun)
	}
	if cfg.Content.MaxJoinLength != 80 {
		t.Errorf("MaxJoinLength = %d, want 80", cfg.Content.MaxJoinLength)
	}
	if cfg.Surface.TabWidth != 8 {
		t.Errorf("TabWidth = %d, want 8", cfg.Surface.TabWidth)
	}
	if cfg.Viewport.Margin != Default().Viewport.Margin {
		t.Errorf("Margin = %v, want default", cfg.Viewport.Margin)
	}
}

func TestLoadEnv(t *testing.T) {
	env := []string{
		"SCRIVENER_VIEWPORT_GAP_MARGIN=3000",
		"SCRIVENER_HEIGHTS_LINE_WRAPPING=true",
		"SCRIVENER_LOG_LEVEL=warn",
		"OTHER_VIEWPORT_MARGIN=1",
		"PATH=/bin",
	}
	l := Loader{EnvPrefix: DefaultEnvPrefix, Environ: func() []string { return env }}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewport.GapMargin != 3000 {
		t.Errorf("GapMargin = %d, want 3000", cfg.Viewport.GapMargin)
	}
	if !cfg.Heights.LineWrapping {
		t.Error("LineWrapping = false, want true")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Viewport.Margin != 1000 {
		t.Errorf("Margin = %v, want 1000", cfg.Viewport.Margin)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		file  string
		data  string
		check func(error) bool
	}{
		{"bad toml", "bad.toml", "[viewport\nmargin = ", func(err error) bool {
			var pe *ParseError
			return errors.As(err, &pe)
		}},
		{"unknown key", "unknown.yaml", "viewport:\n  bogus: 1\n", func(err error) bool {
			var pe *ParseError
			return errors.As(err, &pe)
		}},
		{"invalid value", "invalid.toml", "[viewport]\nmargin = -5\n", func(err error) bool {
			return errors.Is(err, ErrValidationFailed)
		}},
		{"format", "config.ini", "margin=1", func(err error) bool {
			return errors.Is(err, ErrUnsupportedFormat)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.data)
			_, err := (&Loader{Paths: []string{path}}).Load()
			if err == nil || !tt.check(err) {
				t.Errorf("Load = %v", err)
			}
		})
	}
}

func TestWriteTOMLRoundTrip(t *testing.T) {
	want := Default()
	want.Heights.LineWrapping = true
	want.Viewport.RemapThreshold = 500

	var buf bytes.Buffer
	if err := want.WriteTOML(&buf); err != nil {
		t.Fatalf("WriteTOML: %v", err)
	}
	path := writeFile(t, t.TempDir(), "out.toml", buf.String())
	got, err := (&Loader{Paths: []string{path}}).Load()
	if err != nil {
		t.Fatalf("Load: %v\n%s", err, buf.String())
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"a": map[string]any{"x": 1, "y": 2},
		"b": "keep",
	}
	src := map[string]any{
		"a": map[string]any{"y": 3, "z": 4},
		"c": []any{1, 2},
	}
	got := DeepMerge(dst, src)
	a := got["a"].(map[string]any)
	if a["x"] != 1 || a["y"] != 3 || a["z"] != 4 {
		t.Errorf("a = %v", a)
	}
	if got["b"] != "keep" {
		t.Errorf("b = %v", got["b"])
	}
	src["c"].([]any)[0] = 9
	if got["c"].([]any)[0] != 1 {
		t.Error("merged slice shares storage with src")
	}
}

func TestSetByPath(t *testing.T) {
	m := map[string]any{"a": "scalar"}
	SetByPath(m, "a.b.c", 1)
	SetByPath(m, "d", true)
	b := m["a"].(map[string]any)["b"].(map[string]any)
	if b["c"] != 1 || m["d"] != true {
		t.Errorf("SetByPath = %v", m)
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scrivener.toml", "[viewport]\nmargin = 1200\n")
	w, err := NewWatcher(Loader{Paths: []string{path}}, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "other.toml", "[viewport]\nmargin = 1\n")
	writeFile(t, dir, "scrivener.toml", "[viewport]\nmargin = 1300\n")

	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-w.Updates():
			if cfg.Viewport.Margin == 1300 {
				return
			}
		case err := <-w.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-timeout:
			t.Fatal("no update after rewriting the file")
		}
	}
}

func TestWatcherCloseTwice(t *testing.T) {
	w, err := NewWatcher(Loader{Paths: []string{filepath.Join(t.TempDir(), "x.toml")}}, 0)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("second Close = %v, want ErrWatcherClosed", err)
	}
}
