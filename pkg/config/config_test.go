package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/gemgutter/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.ShowAutomatically {
		t.Error("ShowAutomatically = false, want true")
	}
	if cfg.GutterWidth != DefaultGutterWidth {
		t.Errorf("GutterWidth = %d, want %d", cfg.GutterWidth, DefaultGutterWidth)
	}
	if cfg.Debounce.Duration != DefaultDebounce {
		t.Errorf("Debounce = %s, want %s", cfg.Debounce, DefaultDebounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	cfg.Filenames[0] = "changed"
	if DefaultFilenames[0] != "Gemfile" {
		t.Error("Default() shares the DefaultFilenames backing array")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}
	want := filepath.Join("/tmp/xdg", AppName, FileName)
	if got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
show_automatically = false
gutter_width = 20
filenames = ["Gemfile", " gems.rb "]
debounce = "1s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ShowAutomatically {
		t.Error("ShowAutomatically = true, want false")
	}
	if cfg.GutterWidth != 20 {
		t.Errorf("GutterWidth = %d, want 20", cfg.GutterWidth)
	}
	if cfg.Debounce.Duration != time.Second {
		t.Errorf("Debounce = %s, want 1s", cfg.Debounce)
	}
	if got := strings.Join(cfg.Filenames, ","); got != "Gemfile,gems.rb" {
		t.Errorf("Filenames = %q, want Gemfile,gems.rb", got)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "gutter_width = 8\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GutterWidth != 8 {
		t.Errorf("GutterWidth = %d, want 8", cfg.GutterWidth)
	}
	if !cfg.ShowAutomatically || cfg.Debounce.Duration != DefaultDebounce || len(cfg.Filenames) != len(DefaultFilenames) {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty", cfg.Path)
	}
	if cfg.GutterWidth != DefaultGutterWidth {
		t.Errorf("GutterWidth = %d, want default", cfg.GutterWidth)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code errors.Code
	}{
		{
			name: "missing explicit file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.toml") },
			code: errors.ErrCodeFileNotFound,
		},
		{
			name: "malformed toml",
			path: func(t *testing.T) string { return writeConfig(t, "gutter_width = [") },
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "unknown key",
			path: func(t *testing.T) string { return writeConfig(t, "colour = \"red\"\n") },
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "bad duration",
			path: func(t *testing.T) string { return writeConfig(t, "debounce = \"soon\"\n") },
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "zero width",
			path: func(t *testing.T) string { return writeConfig(t, "gutter_width = 0\n") },
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "filename with path",
			path: func(t *testing.T) string { return writeConfig(t, "filenames = [\"app/Gemfile\"]\n") },
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "empty filenames",
			path: func(t *testing.T) string { return writeConfig(t, "filenames = [\"\", \" \"]\n") },
			code: errors.ErrCodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "gutter_width = 20\n")
	t.Setenv("GEMGUTTER_SHOW_AUTOMATICALLY", "false")
	t.Setenv("GEMGUTTER_GUTTER_WIDTH", "30")
	t.Setenv("GEMGUTTER_FILENAMES", "Gemfile, Brewfile")
	t.Setenv("GEMGUTTER_DEBOUNCE", "50ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ShowAutomatically {
		t.Error("ShowAutomatically = true, want false")
	}
	if cfg.GutterWidth != 30 {
		t.Errorf("GutterWidth = %d, want 30", cfg.GutterWidth)
	}
	if got := strings.Join(cfg.Filenames, ","); got != "Gemfile,Brewfile" {
		t.Errorf("Filenames = %q", got)
	}
	if cfg.Debounce.Duration != 50*time.Millisecond {
		t.Errorf("Debounce = %s, want 50ms", cfg.Debounce)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	for _, key := range []string{"GEMGUTTER_SHOW_AUTOMATICALLY", "GEMGUTTER_GUTTER_WIDTH", "GEMGUTTER_DEBOUNCE"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", t.TempDir())
			t.Setenv(key, "not-a-value")
			if _, err := Load(""); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	cfg := Default()

	tests := []struct {
		path string
		want bool
	}{
		{"/app/Gemfile", true},
		{"/app/Gemfile.lock", true},
		{"/app/gemfile", true},
		{"/app/gems.rb", true},
		{"/app/gems.rb.lock", true},
		{"/app/main.go", false},
		{"/app/Gemfile.bak", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := cfg.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"show_automatically = true", "gutter_width = 14", `debounce = "300ms"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Path") {
		t.Errorf("Encode() leaked Path field:\n%s", out)
	}
}
