// Package config loads the barscan command configuration from a YAML
// file, BARSCAN_ environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/charset"
	"github.com/ericlevine/barscan/imgscan"
)

// Output formats of the scan command.
const (
	FormatText  = "text"
	FormatRaw   = "raw"
	FormatXML   = "xml"
	FormatTable = "table"

	// CharsetAuto transcodes symbol data that is not valid UTF-8 from
	// its most likely character set.
	CharsetAuto = "auto"
)

// Config is the complete command configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`

	Scanner ScannerConfig `mapstructure:"scanner" yaml:"scanner"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// ScannerConfig holds the image scanner settings.
type ScannerConfig struct {
	XDensity int  `mapstructure:"x_density" yaml:"x_density" validate:"gte=0,lte=4096"`
	YDensity int  `mapstructure:"y_density" yaml:"y_density" validate:"gte=0,lte=4096"`
	Position bool `mapstructure:"position" yaml:"position"`
	// Settings are symbology configuration strings such as
	// "ean13.disable" or "code128.min-length=4", applied in order.
	Settings []string `mapstructure:"settings" yaml:"settings" validate:"dive,required"`
}

// CacheConfig holds the inter-frame cache settings.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Consistency int           `mapstructure:"consistency" yaml:"consistency" validate:"gte=1"`
	Proximity   time.Duration `mapstructure:"proximity" yaml:"proximity" validate:"gt=0"`
	Hysteresis  time.Duration `mapstructure:"hysteresis" yaml:"hysteresis" validate:"gtefield=Proximity"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gtefield=Hysteresis"`
}

// OutputConfig holds the scan command output settings.
type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format" validate:"oneof=text raw xml table"`
	Workers int    `mapstructure:"workers" yaml:"workers" validate:"gte=1,lte=256"`
	Color   bool   `mapstructure:"color" yaml:"color"`
	// Charset is used to display text and table output, CharsetAuto or
	// a character set name such as "latin1" or "sjis".
	Charset string `mapstructure:"charset" yaml:"charset" validate:"required"`
	// MetricsFile receives the scan metrics in Prometheus text format.
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	p := imgscan.DefaultCacheParams()
	return Config{
		LogLevel:  "warn",
		LogFormat: "text",
		Scanner: ScannerConfig{
			XDensity: imgscan.DefaultDensity,
			YDensity: imgscan.DefaultDensity,
			Position: true,
			Settings: []string{},
		},
		Cache: CacheConfig{
			Consistency: p.Consistency,
			Proximity:   p.Proximity,
			Hysteresis:  p.Hysteresis,
			Timeout:     p.Timeout,
		},
		Output: OutputConfig{
			Format:  FormatText,
			Workers: 4,
			Color:   true,
			Charset: CharsetAuto,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and parses every symbology setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return fmt.Errorf("%w: %s", barscan.ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	if cs := c.Output.Charset; cs != CharsetAuto {
		if _, ok := charset.Lookup(cs); !ok {
			return fmt.Errorf("%w: unknown charset %q", barscan.ErrInvalidConfig, cs)
		}
	}
	for _, s := range c.Scanner.Settings {
		if _, err := barscan.ParseConfig(s); err != nil {
			return fmt.Errorf("scanner setting: %w", err)
		}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, fe.Param())
	case "required":
		return field + " must not be empty"
	}
	return fmt.Sprintf("%s must be %s %s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
}

// CacheParams converts the cache settings for the image scanner.
func (c *Config) CacheParams() imgscan.CacheParams {
	return imgscan.CacheParams{
		Consistency: c.Cache.Consistency,
		Proximity:   c.Cache.Proximity,
		Hysteresis:  c.Cache.Hysteresis,
		Timeout:     c.Cache.Timeout,
	}
}

// Apply pushes the scanner and cache settings into s.
func (c *Config) Apply(s *imgscan.Scanner) error {
	position := 0
	if c.Scanner.Position {
		position = 1
	}
	for _, st := range []barscan.Setting{
		{Config: barscan.CfgXDensity, Value: c.Scanner.XDensity},
		{Config: barscan.CfgYDensity, Value: c.Scanner.YDensity},
		{Config: barscan.CfgPosition, Value: position},
	} {
		if err := s.Apply(st); err != nil {
			return err
		}
	}
	for _, str := range c.Scanner.Settings {
		st, err := barscan.ParseConfig(str)
		if err != nil {
			return err
		}
		if err := s.Apply(st); err != nil {
			return fmt.Errorf("apply %q: %w", str, err)
		}
	}
	if err := s.SetCacheParams(c.CacheParams()); err != nil {
		return err
	}
	s.EnableCache(c.Cache.Enabled)
	return nil
}

// MarshalYAML writes durations in their string form.
func (c CacheConfig) MarshalYAML() (any, error) {
	return struct {
		Enabled     bool   `yaml:"enabled"`
		Consistency int    `yaml:"consistency"`
		Proximity   string `yaml:"proximity"`
		Hysteresis  string `yaml:"hysteresis"`
		Timeout     string `yaml:"timeout"`
	}{
		c.Enabled, c.Consistency,
		c.Proximity.String(), c.Hysteresis.String(), c.Timeout.String(),
	}, nil
}
