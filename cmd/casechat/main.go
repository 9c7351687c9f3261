package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jask/casechat/internal/chatservice"
	"github.com/jask/casechat/internal/config"
	"github.com/jask/casechat/internal/tui"
)

// flags shared by every subcommand
type globalFlags struct {
	url        string
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "casechat",
		Short: "Terminal client for the case chat service",
		Long: `casechat talks to a chat service that answers POST /chat with a reply.

Run without arguments to open the interactive chat window. Use "pipe" to feed
messages from stdin, or "send" for a single exchange.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd.Context(), g)
		},
	}

	root.PersistentFlags().StringVar(&g.url, "url", "", "chat service base URL (overrides service.url)")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default ~/.config/casechat/config.toml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newPipeCmd(&g), newSendCmd(&g), newUploadCmd(&g), newConfigCmd(&g))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig applies --config and --url on top of the file and env settings.
func loadConfig(g globalFlags) (config.Config, error) {
	if g.configPath != "" {
		if err := os.Setenv("CASECHAT_CONFIG", g.configPath); err != nil {
			return config.Config{}, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	if g.url != "" {
		cfg.Service.URL = g.url
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a production zap logger. An empty path logs to stderr.
func newLogger(cfg config.LogConfig, verbose bool, path string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir log dir: %w", err)
		}
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func newClient(cfg config.Config, log *zap.Logger) (*chatservice.Client, error) {
	return chatservice.New(cfg.Service.URL,
		chatservice.WithTimeout(cfg.Service.Timeout),
		chatservice.WithUserAgent(cfg.Service.UserAgent),
		chatservice.WithLogger(log.Named("chatservice")),
	)
}

func runInteractive(ctx context.Context, g globalFlags) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	// the screen belongs to bubbletea, so logs go to a file
	log, err := newLogger(cfg.Log, g.verbose, cfg.Log.Path)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	client, err := newClient(cfg, log)
	if err != nil {
		return err
	}

	m, err := tui.New(client, tui.Options{
		Endpoint:       cfg.Service.URL,
		UserLabel:      cfg.UI.UserLabel,
		BotLabel:       cfg.UI.BotLabel,
		Markdown:       cfg.UI.Markdown,
		MarkdownStyle:  cfg.UI.MarkdownStyle,
		ShowTimestamps: cfg.UI.ShowTimestamps,
		Logger:         log.Named("tui"),
	})
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	log.Info("starting", zap.String("url", cfg.Service.URL))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
