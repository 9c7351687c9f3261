package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/casechat/internal/config"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Write the effective settings, including --url, to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*g)
			if err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved service.url = %s\n", cfg.Service.URL)
			return nil
		},
	})
	return cmd
}
