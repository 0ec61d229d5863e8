package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/turtacn/compoundrank/pkg/errors"
)

const (
	// envPrefix is the environment variable prefix used by all settings.
	envPrefix = "COMPOUNDRANK"

	// defaultConfigName is looked up in the working directory when no
	// explicit path is given.
	defaultConfigName = "compoundrank"
)

var (
	ErrConfigFileNotFound = errors.New(errors.ErrCodeValidation, "config file not found")
	ErrConfigParseError   = errors.New(errors.ErrCodeValidation, "config file could not be parsed")
	ErrConfigValidation   = errors.New(errors.ErrCodeValidation, "config validation failed")
)

type loadOptions struct {
	path      string
	searchDir string
	overrides map[string]interface{}
}

// Option customises Load.
type Option func(*loadOptions)

// WithConfigPath makes Load read exactly this file; a missing file is an
// error.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) { o.path = path }
}

// WithSearchDir changes the directory searched for compoundrank.yaml when no
// explicit path is given.
func WithSearchDir(dir string) Option {
	return func(o *loadOptions) { o.searchDir = dir }
}

// WithOverride sets key after file and environment have been merged.  The CLI
// uses it for flags the user actually passed.
func WithOverride(key string, value interface{}) Option {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]interface{})
		}
		o.overrides[key] = value
	}
}

// newViper builds a Viper instance with YAML file type, the COMPOUNDRANK_ env
// prefix and a "." → "_" key replacer so that "pipeline.match_policy"
// resolves to COMPOUNDRANK_PIPELINE_MATCH_POLICY.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v)
	return v
}

// Load resolves configuration from, in increasing precedence: defaults, the
// YAML file (explicit path, else ./compoundrank.yaml when present),
// COMPOUNDRANK_* environment variables and overrides.  The result has
// defaults applied and is validated.
func Load(opts ...Option) (*Config, error) {
	o := &loadOptions{searchDir: "."}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	if o.path != "" {
		if _, err := os.Stat(o.path); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigFileNotFound, o.path, err)
		}
		v.SetConfigFile(o.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, o.path, err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(o.searchDir)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
			}
		}
	}

	for k, val := range o.overrides {
		v.Set(k, val)
	}

	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config, applies defaults
// and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}
