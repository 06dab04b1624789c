package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/lessonplay/internal/app"
	"github.com/felixgeelhaar/lessonplay/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lesson",
		Short:         "Interactive lesson player",
		Long:          "lesson browses the course catalog, shows chapter content and records chapter progress.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("learner", os.Getenv("LESSONPLAY_LEARNER"), "Learner ID (defaults to LESSONPLAY_LEARNER; empty is anonymous)")
	root.PersistentFlags().String("locale", "", "Instruction locale (defaults to catalog.default_locale)")
	root.PersistentFlags().String("catalog", "", "Catalog directory (overrides config)")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newNextCmd(),
		newBackCmd(),
		newProgressCmd(),
		newResetCmd(),
		newHistoryCmd(),
		newLearnersCmd(),
		newValidateCmd(),
		newMCPCmd(),
		newDaemonCmd(),
		newInitCmd(),
	)
	return root
}

// openApp loads config, applies flag overrides and loads the catalog
func openApp(cmd *cobra.Command, opts app.Options) (*app.App, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		cfg.Catalog.Path = path
	}
	if _, err := config.EnsureDir(); err != nil {
		return nil, err
	}

	a, err := app.New(cmd.Context(), cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := a.LoadCatalog(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func learnerFlag(cmd *cobra.Command) string {
	learner, _ := cmd.Flags().GetString("learner")
	return learner
}

func localeFlag(cmd *cobra.Command) string {
	locale, _ := cmd.Flags().GetString("locale")
	return locale
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
