package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"MiniChat/internal/chatbot"
	"MiniChat/internal/config"
	"MiniChat/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags to config keys
var flagKeys = map[string]string{
	"backend":     "backend",
	"model":       "model",
	"base-url":    "base_url",
	"max-retries": "max_retries",
	"timeout":     "timeout",
	"max-tokens":  "max_tokens",
	"log-dir":     "log_dir",
	"debug":       "debug",
	"telemetry":   "telemetry",
	"cache":       "cache",
	"no-color":    "no_color",
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "minichat",
		Short: "Interactive terminal chat with an LLM",
		Long: "minichat reads lines from standard input, sends the whole conversation to the\n" +
			"configured backend and prints each reply. Type exit or quit to leave.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("backend", d.Backend, "LLM backend ("+strings.Join(config.Backends, "|")+")")
	f.String("model", "", "Model name (defaults per backend)")
	f.String("base-url", "", "Override the backend API endpoint")
	f.Int("max-retries", d.MaxRetries, "Retries for transient provider failures")
	f.Duration("timeout", d.Timeout, "Per-request timeout (0 waits indefinitely)")
	f.Int64("max-tokens", d.MaxTokens, "Reply token limit where the backend requires one")
	f.String("log-dir", d.LogDir, "Directory for log, trace and metric files")
	f.Bool("debug", false, "Enable debug logging")
	f.Bool("telemetry", false, "Export traces and metrics to the log directory")
	f.Bool("cache", false, "Answer repeated conversations from an in-memory cache")
	f.Bool("no-color", false, "Disable colored output")

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
	return cmd
}

func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, logCloser, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logCloser.Close()

	tel := telemetry.Noop()
	if cfg.Telemetry {
		tel, err = telemetry.InitTelemetry(ctx, cfg.LogDir)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	logger.Info("starting minichat", "backend", cfg.Backend, "model", cfg.Model, "cache", cfg.Cache)

	bot, err := chatbot.NewChatBot(cfg,
		chatbot.WithLogger(logger),
		chatbot.WithTelemetry(tel),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize chatbot: %w", err)
	}
	return bot.Run(ctx, in, out)
}
