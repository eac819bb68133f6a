// Package config loads the claudecast settings file.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Settings holds all configurable claudecast options. The file is JSON at
// ~/.config/claudecast/config.json; a handful of environment variables
// override individual fields.
type Settings struct {
	DefaultModel string `json:"default_model"` // model selector passed to the CLI
	TerminalApp  string `json:"terminal_app"`  // terminal for interactive hand-off
	BinaryPath   string `json:"binary_path"`   // override for CLI binary discovery
	OAuthToken   string `json:"oauth_token"`   // injected as CLAUDE_CODE_OAUTH_TOKEN
	LibraryDir   string `json:"library_dir"`   // override for ~/.claudecast
}

// Defaults returns sensible default configuration values.
func Defaults() Settings {
	return Settings{
		DefaultModel: "sonnet",
		TerminalApp:  "terminal",
	}
}

// Load reads the settings file, falling back to defaults when it is absent,
// then applies environment overrides.
func Load() (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	cfg, err := loadFile(filepath.Join(home, ".config", "claudecast", "config.json"))
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d := Defaults()
			return &d, nil
		}
		return nil, err
	}
	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

func applyEnv(cfg *Settings) {
	if dir := os.Getenv("CLAUDECAST_DIR"); dir != "" {
		cfg.LibraryDir = dir
	}
	if model := os.Getenv("CLAUDECAST_MODEL"); model != "" {
		cfg.DefaultModel = model
	}
	if token := os.Getenv("CLAUDE_CODE_OAUTH_TOKEN"); token != "" {
		cfg.OAuthToken = token
	}
}

// LibraryPath resolves the directory claudecast keeps its state in.
func (s *Settings) LibraryPath() (string, error) {
	if s.LibraryDir != "" {
		return s.LibraryDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claudecast"), nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
