package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"claudecast/internal/cli"
	"claudecast/internal/config"
	"claudecast/internal/service"
	"claudecast/internal/ui"
)

var version = "0.1.0"

// newLogger writes structured logs to a file in the library directory.
// The terminal belongs to the TUI, so nothing ever logs to stdout.
func newLogger(dir string) *zap.Logger {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{filepath.Join(dir, "claudecast.log")}
	logCfg.ErrorOutputPaths = logCfg.OutputPaths
	log, err := logCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "--version", "-V", "version":
			fmt.Printf("claudecast v%s\n", version)
			return
		case "--help", "-h":
			args = []string{"help"}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	libDir, err := cfg.LibraryPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", libDir, err)
		os.Exit(1)
	}

	log := newLogger(libDir)
	defer log.Sync()

	svc, err := service.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Headless mode: any argument means a CLI command.
	if len(args) > 0 {
		c := cli.NewCLI(svc)
		if err := c.ExecuteCommand(args); err != nil {
			os.Exit(c.HandleError(err))
		}
		return
	}

	runTUI(svc, log)
}

func runTUI(svc *service.Service, log *zap.Logger) {
	model, err := ui.NewModel(svc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing interface: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())

	// Reload the template list when the store changes on disk, for
	// example after a headless `template import` in another shell.
	stop, err := svc.Watch(func() {
		p.Send(ui.LibraryChangedMsg{})
	})
	if err != nil {
		log.Warn("library watch unavailable", zap.Error(err))
	} else {
		defer stop()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running interface: %v\n", err)
		os.Exit(1)
	}
}
