// ABOUTME: Shared command state: config loading, logger setup and profile opening
// ABOUTME: Every command receives the same *Global bound by kong

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/2389/taskboard/internal/accounts"
	"github.com/2389/taskboard/internal/board"
	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/metrics"
	"github.com/2389/taskboard/internal/store"
	"github.com/2389/taskboard/internal/tasks"
)

// Global carries process-wide state into the commands.
type Global struct {
	Ctx        context.Context
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	ConfigPath string
	Verbose    bool

	reader *bufio.Reader
}

// configPath returns the --config flag or the default location.
func (g *Global) configPath() string {
	if g.ConfigPath != "" {
		return g.ConfigPath
	}
	return config.DefaultPath()
}

// loadConfig reads the config file. A missing default file falls back to
// config.Default(); a missing file named with --config is an error.
func (g *Global) loadConfig() (*config.Config, error) {
	path := g.configPath()
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && g.ConfigPath == "" {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setup loads the config and installs the default logger. Outside of serve
// only warnings and errors are shown unless --verbose is set, so command
// output stays readable.
func (g *Global) setup(serving bool) (*config.Config, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if !serving && !g.Verbose {
		logCfg.Level = "warn"
	}
	if g.Verbose {
		logCfg.Level = "debug"
	}
	slog.SetDefault(setupLogger(logCfg, g.Err))
	return cfg, nil
}

// openBoard opens the profile named by cfg and builds the board service on it.
// The returned close function releases the profile.
func (g *Global) openBoard(cfg *config.Config, rec metrics.Recorder) (*board.Service, func() error, error) {
	kv, err := store.Open(cfg.Storage.Driver, cfg.Storage.Path, store.Options{OpenTimeout: cfg.Storage.OpenTimeout})
	if err != nil {
		return nil, nil, fmt.Errorf("opening profile: %w", err)
	}

	svc := board.New(accounts.NewStore(kv), tasks.NewStore(kv), board.Options{
		OwnerOnly: cfg.Tasks.OwnerOnly,
		Recorder:  rec,
	})
	return svc, kv.Close, nil
}

// withBoard runs fn against an open profile and closes it afterwards.
func (g *Global) withBoard(fn func(svc *board.Service) error) (err error) {
	cfg, err := g.setup(false)
	if err != nil {
		return err
	}
	svc, closeFn, err := g.openBoard(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = fmt.Errorf("closing profile: %w", cerr)
		}
	}()
	return fn(svc)
}

// prompt asks question on Out and reads one line from In.
func (g *Global) prompt(question, defaultVal string) string {
	if g.reader == nil {
		g.reader = bufio.NewReader(g.In)
	}
	if defaultVal != "" {
		fmt.Fprintf(g.Out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(g.Out, "%s: ", question)
	}

	input, err := g.reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(g.Out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
