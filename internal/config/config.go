package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/battwarn/internal/errors"
	"codeberg.org/mutker/battwarn/internal/notify"
	"codeberg.org/mutker/battwarn/internal/pid"
	"codeberg.org/mutker/battwarn/internal/threshold"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName             = "battwarn"
	DefaultEnvPrefix    = "BATTWARN"
	DefaultSleepSeconds = 60.0

	// Longest wait that still fits in a time.Duration
	maxSleepSeconds = float64(math.MaxInt64) / float64(time.Second)

	keyDaemonize    = "daemonize"
	keySleepSeconds = "sleep-seconds"
	keyFailFast     = "fail-fast"
	keyDebug        = "debug"
	keyVerbose      = "verbose"
	keyMetrics      = "metrics"
	keyMetricsDB    = "metrics-db"
	keyPIDFile      = "pid-file"
)

// DefaultBatteries are the status directories checked on every poll cycle.
var DefaultBatteries = []string{
	"/sys/class/power_supply/BAT0/",
	"/sys/class/power_supply/BAT1/",
}

// DefaultThresholds holds the warning ratio per battery identifier.
var DefaultThresholds = map[string]float64{
	"BAT0": 0.3,
	"BAT1": 0.1,
}

// Config is built once at startup and not modified afterwards.
type Config struct {
	Daemonize    bool
	SleepSeconds float64
	FailFast     bool
	Debug        bool
	Verbose      bool
	Metrics      bool
	MetricsDB    string
	PIDFile      string

	Batteries     []string
	Thresholds    threshold.Table
	NotifyCommand notify.Command
}

// Load parses args (without the program name) and the environment into a
// validated Config. pflag.ErrHelp is returned wrapped when -h is given.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.BoolP(keyDaemonize, "d", false, "Run forever, checking every --sleep-seconds")
	fs.Float64P(keySleepSeconds, "s", DefaultSleepSeconds, "Seconds between checks when daemonized")
	fs.Bool(keyFailFast, false, "Abort a check cycle on the first unreadable battery")
	fs.Bool(keyDebug, false, "Enable debugging mode")
	fs.Bool(keyVerbose, false, "Enable verbose logging")
	fs.Bool(keyMetrics, false, "Record every reading in a SQLite database")
	fs.String(keyMetricsDB, defaultMetricsDB(o.home), "Path to the readings database")
	fs.String(keyPIDFile, pid.DefaultPath(), "PID file used in daemon mode")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrParseFlags, err)
	}
	if fs.NArg() > 0 {
		return nil, errFactory.WithData(errors.ErrParseFlags, fs.Args())
	}

	v := viper.New()
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	cfg := &Config{
		MetricsDB:     v.GetString(keyMetricsDB),
		PIDFile:       v.GetString(keyPIDFile),
		Batteries:     append([]string(nil), DefaultBatteries...),
		Thresholds:    threshold.New(DefaultThresholds),
		NotifyCommand: notify.DefaultCommand(),
	}

	// Environment values arrive as strings; reject the ones that do not parse
	// instead of letting them fall back to zero values.
	bools := map[string]*bool{
		keyDaemonize: &cfg.Daemonize,
		keyFailFast:  &cfg.FailFast,
		keyDebug:     &cfg.Debug,
		keyVerbose:   &cfg.Verbose,
		keyMetrics:   &cfg.Metrics,
	}
	for key, dst := range bools {
		value, err := cast.ToBoolE(v.Get(key))
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err).WithData(key)
		}
		*dst = value
	}

	sleep, err := cast.ToFloat64E(v.Get(keySleepSeconds))
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err).WithData(keySleepSeconds)
	}
	cfg.SleepSeconds = sleep

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the checker cannot use.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Daemonize {
		s := c.SleepSeconds
		if s <= 0 || math.IsNaN(s) || s >= maxSleepSeconds {
			return errFactory.WithData(errors.ErrInvalidInterval, s)
		}
	}

	if err := c.Thresholds.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if c.NotifyCommand.Program == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "notification program is empty")
	}

	if c.Metrics && c.MetricsDB == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "metrics enabled without a database path")
	}

	if c.Daemonize && c.PIDFile == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "daemon mode requires a PID file path")
	}

	return nil
}

// Interval is the wait between poll cycles in daemon mode.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.SleepSeconds * float64(time.Second))
}

func defaultMetricsDB(home string) string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" && home == "" {
		return filepath.Join(state, AppName, "readings.db")
	}

	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return filepath.Join(os.TempDir(), AppName, "readings.db")
		}
	}

	return filepath.Join(home, ".local", "state", AppName, "readings.db")
}
