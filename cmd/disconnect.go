package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/model"
)

var disconnectYes bool

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <provider>",
	Short: "Disconnect a provider",
	Long: `Revoke a provider connection server-side, then drop the cached
integration and every member snapshot that provider contributed to.

Nothing is removed locally until the backend confirms the revocation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := model.Provider(args[0])

		if !disconnectYes {
			fmt.Fprintf(os.Stderr, "Disconnect %s? Cached member data it contributed will be dropped. [y/N]: ", provider)

			var response string
			_, _ = fmt.Scanln(&response)

			if response != "y" && response != "Y" {
				fmt.Fprintln(os.Stdout, "Cancelled.")

				return nil
			}
		}

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.connectManager().Disconnect(cmd.Context(), provider); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s disconnected.\n", provider)

		return nil
	},
}

func init() {
	disconnectCmd.Flags().BoolVarP(&disconnectYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(disconnectCmd)
}
