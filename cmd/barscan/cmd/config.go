package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ericlevine/barscan/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *a.cfg
			if defaults {
				cfg = config.Default()
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			w := cmd.OutOrStdout()
			if f := a.loader.FileUsed(); f != "" && !defaults {
				fmt.Fprintf(w, "# loaded from %s\n", f)
			}
			_, err = w.Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "print the built-in defaults instead")
	return cmd
}
