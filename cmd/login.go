package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/model"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store your backend session credential",
	Long: `Prompt for the bearer credential of your burnout-analysis account and
store it sealed at rest in the local cache. Every other command uses it to
authenticate against the backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		credential, err := promptSecret("Session credential: ")
		if err != nil {
			return err
		}

		if credential == "" {
			return fmt.Errorf("credential must not be empty")
		}

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.durable.PutCredential(credential); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Credential stored (…%s).\n", model.Suffix(credential))

		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.durable.DeleteCredential(); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, "Logged out.")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
