// ABOUTME: serve, init and health commands
// ABOUTME: serve runs the web UI until SIGINT/SIGTERM; init writes a config; health probes a server

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/2389/taskboard/internal/config"
	"github.com/2389/taskboard/internal/metrics"
	"github.com/2389/taskboard/internal/store"
	"github.com/2389/taskboard/internal/webui"
)

// ServeCmd starts the web UI.
type ServeCmd struct {
	Addr string `help:"Listen address, overrides server.http_addr"`
}

func (s *ServeCmd) Run(g *Global) error {
	cfg, err := g.setup(true)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.HTTPAddr = s.Addr
	}

	printBanner(g.Out, g.configPath(), cfg)

	var rec metrics.Recorder
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	svc, closeFn, err := g.openBoard(cfg, rec)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			slog.Error("failed to close profile", "error", err)
		}
	}()

	srv, err := webui.NewServer(svc, webui.ServerConfig{
		Addr:           cfg.Server.HTTPAddr,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
	})
	if err != nil {
		return err
	}

	slog.Info("starting taskboard",
		"http_addr", cfg.Server.HTTPAddr,
		"driver", cfg.Storage.Driver,
		"owner_only", cfg.Tasks.OwnerOnly,
	)
	return srv.Run(g.Ctx)
}

func printBanner(w io.Writer, configPath string, cfg *config.Config) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(w, banner)
	gray.Fprintf(w, "    version: %s\n\n", version)

	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "Config:    %s\n", configPath)
	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "Profile:   %s (%s)\n", cfg.Storage.Path, cfg.Storage.Driver)
	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "HTTP:      http://%s/\n", cfg.Server.HTTPAddr)
	if cfg.Metrics.Enabled {
		green.Fprint(w, "    ▶ ")
		fmt.Fprintf(w, "Metrics:   %s\n", cfg.Metrics.Path)
	}
	if cfg.Tasks.OwnerOnly {
		yellow.Fprintln(w, "    ▶ owner-only task visibility")
	}
	fmt.Fprintln(w)
}

// InitCmd writes a configuration file with defaults.
type InitCmd struct {
	Path      string `arg:"" optional:"" help:"Where to write the config (.yaml or .toml); defaults to the --config location"`
	Driver    string `help:"Storage driver" enum:"sqlite,bolt,memory" default:"sqlite"`
	Data      string `help:"Profile data file" type:"path"`
	Addr      string `help:"Listen address for serve"`
	OwnerOnly bool   `help:"Hide other users' tasks"`
}

func (i *InitCmd) Run(g *Global) error {
	path := i.Path
	if path == "" {
		path = g.configPath()
	}

	cfg := config.Default()
	cfg.Storage.Driver = i.Driver
	switch {
	case i.Data != "":
		cfg.Storage.Path = i.Data
	case i.Driver == store.DriverBolt:
		cfg.Storage.Path = strings.TrimSuffix(cfg.Storage.Path, filepath.Ext(cfg.Storage.Path)) + ".bolt"
	case i.Driver == store.DriverMemory:
		cfg.Storage.Path = ""
	}
	if i.Addr != "" {
		cfg.Server.HTTPAddr = i.Addr
	}
	cfg.Tasks.OwnerOnly = i.OwnerOnly

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Write(path, cfg); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s already exists", path)
		}
		return err
	}

	green := color.New(color.FgGreen)
	green.Fprint(g.Out, "✓ ")
	fmt.Fprintf(g.Out, "Config written to %s\n", path)
	if cfg.Storage.Path != "" {
		fmt.Fprintf(g.Out, "  Profile: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Driver)
	}
	fmt.Fprintln(g.Out, "\nTo start the server:")
	fmt.Fprintln(g.Out, "  taskboard serve")
	return nil
}

// HealthCmd probes a running server.
type HealthCmd struct {
	Ready   bool          `help:"Check /health/ready, which also reads the profile"`
	Timeout time.Duration `help:"Request timeout" default:"5s"`
}

func (h *HealthCmd) Run(g *Global) error {
	cfg, err := g.setup(false)
	if err != nil {
		return err
	}

	path := "/health"
	if h.Ready {
		path = "/health/ready"
	}

	ctx, cancel := context.WithTimeout(g.Ctx, h.Timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s%s", cfg.Server.HTTPAddr, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	color.New(color.FgGreen).Fprintln(g.Out, "healthy")
	if h.Ready {
		fmt.Fprintln(g.Out, strings.TrimSpace(string(body)))
	}
	return nil
}
