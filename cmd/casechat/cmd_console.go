package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/casechat/internal/config"
	"github.com/jask/casechat/internal/console"
	"github.com/jask/casechat/internal/widget"
)

var errNotDelivered = errors.New("message not delivered")

func newPipeCmd(g *globalFlags) *cobra.Command {
	var sequential bool
	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Send each line of stdin as a message and print the replies",
		Long: `Reads messages from stdin, one per line, and prints the conversation to
stdout. Blank lines are ignored. Replies are printed as they arrive; use
--sequential to wait for each reply before sending the next line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := consoleSetup(*g)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			host := console.NewHost(cmd.OutOrStdout(), labelsFrom(cfg), true)
			w, err := newConsoleWidget(cfg, host, log)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			return console.Run(cmd.Context(), cmd.InOrStdin(), w, host, console.RunOptions{Sequential: sequential})
		},
	}
	cmd.Flags().BoolVar(&sequential, "sequential", false, "wait for each reply before sending the next line")
	return cmd
}

func newSendCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message...>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := consoleSetup(*g)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			host := console.NewHost(cmd.OutOrStdout(), labelsFrom(cfg), false)
			w, err := newConsoleWidget(cfg, host, log)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			if err := console.Send(cmd.Context(), w, host, strings.Join(args, " ")); err != nil {
				return err
			}
			for _, e := range host.Transcript().Entries() {
				if e.Role == widget.RoleError {
					return errNotDelivered
				}
			}
			return nil
		},
	}
}

func consoleSetup(g globalFlags) (config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := newLogger(cfg.Log, g.verbose, "")
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newConsoleWidget(cfg config.Config, host *console.Host, log *zap.Logger) (*widget.Widget, error) {
	client, err := newClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return widget.New(host, host, client, widget.WithLogger(log.Named("widget")))
}

func labelsFrom(cfg config.Config) console.Labels {
	return console.Labels{User: cfg.UI.UserLabel, Bot: cfg.UI.BotLabel}
}
