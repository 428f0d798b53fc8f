package config

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	envPrefix string
	home      string
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "BATTWARN"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		o.envPrefix = prefix
		return nil
	}
}

// WithHome overrides the home directory used to derive default paths
func WithHome(dir string) Option {
	return func(o *options) error {
		o.home = dir
		return nil
	}
}
