package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/encode"
	"github.com/ericlevine/barscan/imgscan"
)

func emptyLoader(t *testing.T) *Loader {
	t.Helper()
	l := NewLoader(nil)
	l.SearchPaths(t.TempDir())
	return l
}

// assertDefault compares against Default, treating an empty settings list
// like a missing one.
func assertDefault(t *testing.T, cfg *Config) {
	t.Helper()
	want := Default()
	assert.Empty(t, cfg.Scanner.Settings)
	got := *cfg
	got.Scanner.Settings, want.Scanner.Settings = nil, nil
	assert.Equal(t, want, got)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, imgscan.DefaultCacheParams(), cfg.CacheParams())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := emptyLoader(t).Load("")
	require.NoError(t, err)
	assertDefault(t, cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
scanner:
  x_density: 0
  y_density: 2
  settings:
    - ean13.disable
    - code128.min-length=4
cache:
  enabled: true
  hysteresis: 3s
output:
  format: xml
  workers: 2
`), 0o600))

	l := NewLoader(nil)
	cfg, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, l.FileUsed())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0, cfg.Scanner.XDensity)
	assert.Equal(t, 2, cfg.Scanner.YDensity)
	assert.True(t, cfg.Scanner.Position)
	assert.Equal(t, []string{"ean13.disable", "code128.min-length=4"}, cfg.Scanner.Settings)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Cache.Hysteresis)
	assert.Equal(t, FormatXML, cfg.Output.Format)
	assert.Equal(t, 2, cfg.Output.Workers)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("BARSCAN_SCANNER_X_DENSITY", "4")
	t.Setenv("BARSCAN_OUTPUT_FORMAT", "table")
	t.Setenv("BARSCAN_CACHE_TIMEOUT", "10s")

	cfg, err := emptyLoader(t).Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Scanner.XDensity)
	assert.Equal(t, FormatTable, cfg.Output.Format)
	assert.Equal(t, 10*time.Second, cfg.Cache.Timeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n"), 0o600))
	_, err = NewLoader(nil).Load(path)
	require.ErrorIs(t, err, barscan.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "Output.Format")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "LogLevel"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "LogFormat"},
		{"negative density", func(c *Config) { c.Scanner.XDensity = -1 }, "Scanner.XDensity"},
		{"empty setting", func(c *Config) { c.Scanner.Settings = []string{""} }, "Scanner.Settings[0]"},
		{"bad setting", func(c *Config) { c.Scanner.Settings = []string{"foo.enable"} }, "unknown symbology"},
		{"consistency", func(c *Config) { c.Cache.Consistency = 0 }, "Cache.Consistency"},
		{"window order", func(c *Config) { c.Cache.Timeout = time.Second }, "Cache.Timeout"},
		{"workers", func(c *Config) { c.Output.Workers = 0 }, "Output.Workers"},
		{"charset", func(c *Config) { c.Output.Charset = "ebcdic" }, "unknown charset"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, barscan.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestApply(t *testing.T) {
	cfg := Default()
	cfg.Scanner.XDensity = 0
	cfg.Scanner.YDensity = 8
	cfg.Scanner.Position = false
	cfg.Scanner.Settings = []string{"ean13.disable", "upca.enable"}
	cfg.Cache.Enabled = true

	s := imgscan.New()
	require.NoError(t, cfg.Apply(s))

	v, _ := s.Config(barscan.None, barscan.CfgXDensity)
	assert.Zero(t, v)
	v, _ = s.Config(barscan.None, barscan.CfgYDensity)
	assert.Equal(t, 8, v)
	v, _ = s.Config(barscan.None, barscan.CfgPosition)
	assert.Zero(t, v)
	v, _ = s.Config(barscan.EAN13, barscan.CfgEnable)
	assert.Zero(t, v)
	assert.True(t, s.CacheEnabled())

	// UPC-A is reported as itself once EAN-13 no longer claims it
	m, err := encode.Encode(barscan.UPCA, "03600029145")
	require.NoError(t, err)
	img := barscan.FromImage(encode.Render(m, 2, 40, encode.DefaultQuietZone))
	cfg.Cache.Enabled = false
	require.NoError(t, cfg.Apply(s))
	n, err := s.Scan(context.Background(), img)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, barscan.UPCA, img.Symbols().First().Type)

	cfg.Scanner.Settings = []string{"qrcode.min-length=2"}
	assert.ErrorIs(t, cfg.Apply(s), barscan.ErrUnsupported)
}

func TestMarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(Default())
	require.NoError(t, err)
	assert.Contains(t, string(out), "hysteresis: 2s")
	assert.Contains(t, string(out), "x_density: 16")

	path := filepath.Join(t.TempDir(), "barscan.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))
	cfg, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	assertDefault(t, cfg)
}
