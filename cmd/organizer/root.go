package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"fs-organizer/internal/config"
	"fs-organizer/internal/extract"
	"fs-organizer/internal/llm"
	"fs-organizer/internal/oracle"
	"fs-organizer/internal/organizer"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	llm      *llm.Client
	pipeline *organizer.Pipeline
}

func newRootCommand() *cobra.Command {
	var configFlag string
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "organizer",
		Short:         "Sort a directory into cabinets and shelves",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configFlag, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newOrganizeCommand(a))
	rootCmd.AddCommand(newPlanCommand(a))
	rootCmd.AddCommand(newApplyCommand(a))
	rootCmd.AddCommand(newCatalogCommand(a))
	rootCmd.AddCommand(newServeCommand(a))

	return rootCmd
}

func (a *app) init(configPath string, logOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	logger := newLogger(cfg, logOut)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	a.llm = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName,
		llm.WithRetryMaxAttempts(cfg.LLMMaxRetries+1))
	a.pipeline = organizer.New(
		oracle.NewLLMOracle(a.llm),
		extract.New(cfg.PreviewChars),
		organizer.Options{
			BatchSize:      cfg.BatchSize,
			Workers:        cfg.Workers,
			ExtractTimeout: time.Duration(cfg.ExtractTimeoutSecs) * time.Second,
			OracleTimeout:  time.Duration(cfg.LLMTimeoutSecs) * time.Second,
		},
	)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	return nil
}

// newLogger builds the process logger. Without an explicit format, a
// terminal gets text and anything else gets JSON.
func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	format := cfg.LogFormat
	if format == "" {
		format = "json"
		if isTerminal(out) {
			format = "text"
		}
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
