package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/model"
)

var (
	callbackCode  string
	callbackState string
	callbackErr   string
)

var callbackCmd = &cobra.Command{
	Use:   "callback <provider>",
	Short: "Complete an OAuth connect flow",
	Long: `Finish a connect flow started without --listen by passing the code and
state the provider appended to its redirect URL.

A provider error (for example access_denied) can be forwarded with --error;
no exchange is attempted in that case.

Examples:
  burnoutctl callback jira --code abc123 --state s-9f2
  burnoutctl callback jira --error access_denied`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := model.Provider(args[0])

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		// The session scope dies with the process, so the handshake opened
		// by 'connect' in another process is gone. The backend re-validates
		// state server-side; the local check degrades to a warning.
		outcome, err := svc.connectManager().HandleCallback(cmd.Context(), provider, callbackCode, callbackState, callbackErr)
		if err != nil {
			return err
		}

		if !outcome.Connected {
			return fmt.Errorf("connection failed: %s", outcome.Reason)
		}

		fmt.Fprintf(os.Stdout, "%s connected.\n", provider)

		return nil
	},
}

func init() {
	callbackCmd.Flags().StringVar(&callbackCode, "code", "", "authorization code from the redirect")
	callbackCmd.Flags().StringVar(&callbackState, "state", "", "state parameter from the redirect")
	callbackCmd.Flags().StringVar(&callbackErr, "error", "", "error parameter from the redirect, if any")
	rootCmd.AddCommand(callbackCmd)
}
