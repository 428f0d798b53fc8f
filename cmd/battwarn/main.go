package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/battwarn/internal/checker"
	"codeberg.org/mutker/battwarn/internal/config"
	"codeberg.org/mutker/battwarn/internal/errors"
	"codeberg.org/mutker/battwarn/internal/logger"
	"codeberg.org/mutker/battwarn/internal/metrics"
	"codeberg.org/mutker/battwarn/internal/pid"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().
		Bool("daemonize", cfg.Daemonize).
		Float64("sleep_seconds", cfg.SleepSeconds).
		Strs("batteries", cfg.Batteries).
		Msg("Config loaded")

	if err := run(cfg); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError logs err once, with its code when it carries one.
func reportError(err error) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.ErrorWithCode(appErr).Msg("Exiting with error")
		return
	}
	logger.Error().Err(err).Msg("Exiting with error")
}

func run(cfg *config.Config) error {
	errFactory := errors.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel)

	if cfg.Daemonize {
		if err := pid.Write(cfg.PIDFile); err != nil {
			return err
		}
		defer func() {
			if err := pid.Remove(cfg.PIDFile); err != nil {
				logger.Warn().Err(err).Msg("failed to remove PID file")
			}
		}()
	}

	metricsCfg := metrics.DefaultConfig(cfg.MetricsDB)
	metricsCfg.Enabled = cfg.Metrics
	recorder, err := metrics.NewService(metricsCfg)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitMetrics, err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close metrics")
		}
	}()

	c, err := checker.New(checker.Options{
		Batteries:  cfg.Batteries,
		Thresholds: cfg.Thresholds,
		Sender:     cfg.NotifyCommand,
		Recorder:   recorder,
		FailFast:   cfg.FailFast,
	})
	if err != nil {
		return errFactory.Wrap(errors.ErrInitChecks, err)
	}

	if err := c.Run(ctx, cfg.Daemonize, cfg.Interval()); err != nil {
		return err
	}

	if cfg.Daemonize {
		logger.Info().Msg("Exiting...")
	}
	return nil
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}
