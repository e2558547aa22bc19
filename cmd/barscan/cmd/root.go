// Package cmd implements the barscan command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ericlevine/barscan/internal/config"
)

// app carries the state shared by the subcommands of one root command.
type app struct {
	loader  *config.Loader
	cfgFile string

	cfg *config.Config
	log *slog.Logger
}

// NewRootCommand returns the barscan command with all subcommands.
func NewRootCommand() *cobra.Command {
	a := &app{loader: config.NewLoader(viper.New())}

	root := &cobra.Command{
		Use:   "barscan",
		Short: "Find and decode barcodes in images",
		Long: `barscan scans images for EAN/UPC, ISBN and Code 128 barcodes and
locates QR code finder patterns.

Settings are read from barscan.yaml, BARSCAN_ environment variables and
flags, in increasing order of precedence.

Examples:
  barscan scan label.png
  barscan scan --xml -S ean13.disable -S upca.enable *.jpg
  barscan generate ean13 400638133393 -o ean.png`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: barscan.yaml in ., $XDG_CONFIG_HOME/barscan, /etc/barscan)")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	v := a.loader.Viper()
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log_format", pf.Lookup("log-format"))

	root.AddCommand(
		newScanCommand(a),
		newGenerateCommand(a),
		newConfigCommand(a),
	)
	return root
}

func (a *app) init(logOut io.Writer) error {
	cfg, err := a.loader.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := newLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.log = log
	if f := a.loader.FileUsed(); f != "" {
		a.log.Debug("configuration loaded", "file", f)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
