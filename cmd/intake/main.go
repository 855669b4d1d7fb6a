package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/legal-intake/internal/app"
	"github.com/joseph-ayodele/legal-intake/internal/common"
)

var components *app.Components

var rootCmd = &cobra.Command{
	Use:           "intake",
	Short:         "Legal intake toolkit: extract, transcribe, analyze and search case material",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg := common.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger := common.NewLogger(cfg.Log, cmd.ErrOrStderr())
		components = app.Build(cfg, logger)
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		rootCmd.PrintErrln("error:", err)
		stop()
		os.Exit(1)
	}
}
