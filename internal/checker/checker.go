// Package checker compares battery levels against their thresholds and
// warns the user about batteries running low.
package checker

import (
	"context"
	"time"

	"codeberg.org/mutker/battwarn/internal/battery"
	"codeberg.org/mutker/battwarn/internal/errors"
	"codeberg.org/mutker/battwarn/internal/logger"
	"codeberg.org/mutker/battwarn/internal/metrics"
	"codeberg.org/mutker/battwarn/internal/notify"
	"codeberg.org/mutker/battwarn/internal/threshold"
)

// Options configure a Checker. Batteries, Thresholds and Sender are
// required; Reader and Recorder default to the filesystem reader and a
// no-op collector.
type Options struct {
	Batteries  []string
	Thresholds threshold.Table
	Reader     battery.LevelReader
	Sender     notify.Sender
	Recorder   metrics.Collector

	// FailFast aborts a cycle at the first unreadable battery and stops
	// the daemon loop on a failed cycle.
	FailFast bool
}

type Checker struct {
	batteries  []string
	thresholds threshold.Table
	reader     battery.LevelReader
	sender     notify.Sender
	recorder   metrics.Collector
	failFast   bool
	log        logger.Logger
	now        func() time.Time
}

func New(opts Options) (*Checker, error) {
	if opts.Sender == nil {
		return nil, errors.New().New(ErrMissingSender)
	}

	c := &Checker{
		batteries:  append([]string(nil), opts.Batteries...),
		thresholds: opts.Thresholds,
		reader:     opts.Reader,
		sender:     opts.Sender,
		recorder:   opts.Recorder,
		failFast:   opts.FailFast,
		log:        logger.With("checker"),
		now:        time.Now,
	}

	if c.reader == nil {
		c.reader = battery.Reader{}
	}
	if c.recorder == nil {
		c.recorder = metrics.Noop()
	}

	return c, nil
}

// CheckAll runs one poll cycle over every configured battery, in order.
// Notification failures are logged and never returned. Read failures are
// returned joined after all batteries were checked, or immediately when
// FailFast is set.
func (c *Checker) CheckAll(ctx context.Context) error {
	var errs []error

	for _, b := range battery.Describe(c.batteries) {
		if err := c.check(ctx, b); err != nil {
			if c.failFast {
				return err
			}
			c.log.Warn().Err(err).Str("battery", b.ID).Msg("Skipping unreadable battery")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Checker) check(ctx context.Context, b battery.Descriptor) error {
	level, err := c.reader.ReadLevel(b.Path)
	if err != nil {
		return errors.New().Wrap(ErrReadBattery, err).WithMessage("failed to read battery " + b.ID)
	}

	limit := c.thresholds.For(b.ID)
	warn := level < limit

	c.log.Debug().
		Str("battery", b.ID).
		Float64("level", level).
		Float64("threshold", limit).
		Bool("warn", warn).
		Msg("")

	if warn {
		c.log.Info().
			Str("battery", b.ID).
			Float64("level", level).
			Msg("Battery below threshold")

		if err := notify.Notify(ctx, c.sender, b.ID, level); err != nil {
			c.log.Warn().Err(err).Str("battery", b.ID).Msg("Failed to send notification")
		}
	}

	if err := c.recorder.Record(ctx, &metrics.Reading{
		Timestamp: c.now(),
		Battery:   b.ID,
		Level:     level,
		Threshold: limit,
		Warned:    warn,
	}); err != nil {
		c.log.Debug().Err(err).Str("battery", b.ID).Msg("Failed to record reading")
	}

	return nil
}

// Run performs one cycle, or when daemonize is set, cycles forever with a
// wait of interval between the end of one cycle and the start of the next.
// It returns nil once ctx is cancelled.
func (c *Checker) Run(ctx context.Context, daemonize bool, interval time.Duration) error {
	errFactory := errors.New()

	if !daemonize {
		if err := c.CheckAll(ctx); err != nil {
			return errFactory.Wrap(errors.ErrPollCycle, err)
		}
		return nil
	}

	if interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, interval)
	}

	c.log.Info().
		Dur("interval", interval).
		Int("batteries", len(c.batteries)).
		Msg("Monitoring batteries")

	for {
		if err := c.CheckAll(ctx); err != nil {
			if c.failFast {
				return errFactory.Wrap(errors.ErrMainLoop, err)
			}
			c.log.Error().Err(err).Msg("Check cycle failed")
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
