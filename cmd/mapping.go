package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/model"
)

var mappingOrg string

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Curate manual identity mappings",
	Long: `Manual mappings pin a provider identity to a member email and always
take precedence over automatically inferred matches.`,
}

var mappingAddCmd = &cobra.Command{
	Use:   "add <email> <provider> <external-id>",
	Short: "Pin a provider identity to a member",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		mapping := model.ManualMapping{
			Email:      args[0],
			Provider:   model.Provider(args[1]),
			ExternalID: args[2],
		}

		if err := svc.memberSyncer().AddMapping(cmd.Context(), mappingOrg, mapping); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Pinned %s identity %s to %s.\n", mapping.Provider, mapping.ExternalID, mapping.Email)

		return nil
	},
}

var mappingRemoveCmd = &cobra.Command{
	Use:   "remove <email> <provider>",
	Short: "Remove a pinned identity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		provider := model.Provider(args[1])

		if err := svc.memberSyncer().DropMapping(cmd.Context(), mappingOrg, provider, args[0]); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Removed %s pin for %s.\n", provider, args[0])

		return nil
	},
}

func init() {
	mappingCmd.PersistentFlags().StringVar(&mappingOrg, "org", "default", "organization key for the member snapshot")
	mappingCmd.AddCommand(mappingAddCmd)
	mappingCmd.AddCommand(mappingRemoveCmd)
	rootCmd.AddCommand(mappingCmd)
}
