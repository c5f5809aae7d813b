package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/compliance-reviewer/internal/bootstrap"
	"github.com/kirillkom/compliance-reviewer/internal/config"
	"github.com/kirillkom/compliance-reviewer/internal/observability/logging"
)

const serviceName = "reviewctl"

var version = "dev"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "reviewctl",
	Short:         "Review ADGM corporate documents against the regulatory reference corpus",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, classifyCmd, reviewCmd, askCmd, mcpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func openPipeline(cmd *cobra.Command) (*bootstrap.Pipeline, error) {
	p, err := bootstrap.NewPipeline(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}
	return p, nil
}
