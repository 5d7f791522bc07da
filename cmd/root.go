package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/application"
)

var (
	flagAPIURL  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Connect team tools to your burnout-analysis workspace",
	Long: `Burnoutctl manages the integrations that feed your burnout-analysis
workspace: connecting and disconnecting providers (Rootly, PagerDuty,
GitHub, Slack, Jira), correlating team members across them, choosing the
active workspace for multi-tenant providers, and configuring the AI
credential used for insight generation.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "backend base URL (defaults to $BURNOUTCTL_API_URL)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Version = application.Version
}
