package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// FileName is the base name of configuration files.
	FileName = "barscan"

	// EnvPrefix is the prefix of environment variables.
	EnvPrefix = "BARSCAN"
)

// Loader reads a Config through a viper instance. Flags bound to the
// same instance take precedence over files and the environment.
type Loader struct {
	v     *viper.Viper
	paths []string
}

// NewLoader returns a Loader on v, or on a fresh instance when v is nil.
func NewLoader(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.New()
	}
	return &Loader{v: v, paths: defaultPaths()}
}

// Viper returns the underlying instance, for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// SearchPaths replaces the directories searched for barscan.yaml.
func (l *Loader) SearchPaths(paths ...string) {
	l.paths = paths
}

// Load reads file, or searches for barscan.yaml when file is empty. A
// missing searched file is not an error.
func (l *Loader) Load(file string) (*Config, error) {
	l.setDefaults()
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		l.v.SetConfigFile(file)
	} else {
		l.v.SetConfigName(FileName)
		l.v.SetConfigType("yaml")
		for _, p := range l.paths {
			l.v.AddConfigPath(p)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// FileUsed returns the path of the file read by Load, if any.
func (l *Loader) FileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setDefaults() {
	d := Default()
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_format", d.LogFormat)

	l.v.SetDefault("scanner.x_density", d.Scanner.XDensity)
	l.v.SetDefault("scanner.y_density", d.Scanner.YDensity)
	l.v.SetDefault("scanner.position", d.Scanner.Position)
	l.v.SetDefault("scanner.settings", d.Scanner.Settings)

	l.v.SetDefault("cache.enabled", d.Cache.Enabled)
	l.v.SetDefault("cache.consistency", d.Cache.Consistency)
	l.v.SetDefault("cache.proximity", d.Cache.Proximity)
	l.v.SetDefault("cache.hysteresis", d.Cache.Hysteresis)
	l.v.SetDefault("cache.timeout", d.Cache.Timeout)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.workers", d.Output.Workers)
	l.v.SetDefault("output.color", d.Output.Color)
	l.v.SetDefault("output.charset", d.Output.Charset)
	l.v.SetDefault("output.metrics_file", d.Output.MetricsFile)
}

func defaultPaths() []string {
	paths := []string{"."}
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(dir, "barscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "barscan"))
	}
	return append(paths, "/etc/barscan")
}
