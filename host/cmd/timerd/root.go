package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"devtimer/config"
	"devtimer/core"
	"devtimer/host/serial"
	"devtimer/logger"
	"devtimer/sim"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath  string
	logLevel    string
	metricsAddr string
	device      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "timerd",
		Short:         "Boot a simulated machine running the tick timer and sleep queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.PersistentFlags().StringVar(&opts.device, "console-device", "", "Serial device for the console (default stdio)")

	cmd.AddCommand(newRunCmd(opts), newCalibrateCmd(opts), newConsoleCmd(opts))
	return cmd
}

// env is everything a subcommand needs to boot a machine
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	console io.ReadWriter
	closers []io.Closer
}

func (o *rootOptions) setup() (*env, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if o.device != "" {
		cfg.Console.Device = o.device
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, console: stdio{}}
	if cfg.Console.Device != "" {
		port, err := serial.Open(serial.FromConsole(cfg.Console))
		if err != nil {
			return nil, err
		}
		e.console = port
		e.closers = append(e.closers, port)
	}
	return e, nil
}

func (e *env) close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = e.log.Sync()
}

// newMachine assembles a machine whose boot messages go to the console
func (e *env) newMachine() *sim.Machine {
	return sim.NewMachine(e.log,
		core.WithMaxSleepers(e.cfg.Timer.MaxSleepers),
		core.WithDebugWriter(func(s string) {
			fmt.Fprintln(e.console, s)
		}))
}

// serveMetrics exposes m's timer on the configured address until the
// returned function is called.
func (e *env) serveMetrics(m *sim.Machine) (func(), error) {
	if e.cfg.Metrics.Addr == "" {
		return func() {}, nil
	}

	reg := prometheus.NewRegistry()
	if err := core.RegisterMetrics(reg, m.Timer); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              e.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("metrics server failed", zap.Error(err))
		}
	}()
	e.log.Info("serving metrics", zap.String("addr", e.cfg.Metrics.Addr))

	return func() { _ = srv.Close() }, nil
}

// stdio joins stdin and stdout into one console stream
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
