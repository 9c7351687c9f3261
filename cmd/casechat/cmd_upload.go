package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newUploadCmd(g *globalFlags) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document to the chat service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := consoleSetup(*g)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			client, err := newClient(cfg, log)
			if err != nil {
				return err
			}
			msg, err := client.Upload(cmd.Context(), kind, args[0])
			if err != nil {
				log.Warn("upload failed", zap.String("file", args[0]), zap.Error(err))
				return fmt.Errorf("upload %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "general", "document type the service should file the upload under")
	return cmd
}
