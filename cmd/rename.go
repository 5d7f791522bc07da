package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/model"
)

var renameCmd = &cobra.Command{
	Use:   "rename <provider> <new-name>",
	Short: "Rename an integration",
	Long: `Rename a provider's integration. The new name shows immediately and is
confirmed with the backend; if the backend rejects it, the old name is
restored and a rollback notice is printed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := model.Provider(args[0])
		name := args[1]

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		manager := svc.connectManager()

		integration, err := manager.Status(cmd.Context(), provider)
		if err != nil {
			return err
		}

		if integration == nil {
			return fmt.Errorf("%s is not connected", provider)
		}

		if err := manager.RenamePrimary(cmd.Context(), provider, integration.ID, name); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "%s renamed to %q.\n", provider, name)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
