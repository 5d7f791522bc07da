package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/model"
)

var membersOrg string

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Sync and inspect correlated team members",
}

var membersSyncCmd = &cobra.Command{
	Use:   "sync [provider...]",
	Short: "Fetch provider member lists and correlate them",
	Long: `Fetch the raw member list from each named provider (all providers when
none are named), correlate them into deduplicated team members keyed by
normalized email, and replace the cached snapshot for the organization.

Providers that are not connected are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		providerList := model.Providers
		if len(args) > 0 {
			providerList = make([]model.Provider, 0, len(args))
			for _, arg := range args {
				providerList = append(providerList, model.Provider(arg))
			}
		}

		snapshot, stats, err := svc.memberSyncer().Sync(cmd.Context(), membersOrg, providerList)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Synced %d members from %d providers (%d created, %d updated, %d skipped).\n",
			len(snapshot.Members), len(snapshot.Providers), stats.Created, stats.Updated, stats.Skipped)

		return nil
	},
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List correlated team members",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		snapshot, err := svc.memberSyncer().Members(membersOrg)
		if err != nil {
			return fmt.Errorf("no member snapshot for %q; run 'burnoutctl members sync' first", membersOrg)
		}

		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
		manualStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		unmatchedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

		fmt.Fprintf(os.Stdout, "%s  %s  %s\n",
			headerStyle.Render(padRight("EMAIL", 28)),
			headerStyle.Render(padRight("NAME", 20)),
			headerStyle.Render("IDENTITIES"),
		)

		for _, member := range snapshot.Members {
			var cells []string

			for _, provider := range model.Providers {
				identity, ok := member.Identities[provider]
				if !ok {
					continue
				}

				switch {
				case identity.Manual:
					cells = append(cells, manualStyle.Render(fmt.Sprintf("%s:%s (manual)", provider, identity.ExternalID)))
				case identity.Matched:
					cells = append(cells, fmt.Sprintf("%s:%s", provider, identity.ExternalID))
				default:
					cells = append(cells, unmatchedStyle.Render(string(provider)+":-"))
				}
			}

			fmt.Fprintf(os.Stdout, "%s  %s  %s\n",
				padRight(member.NormalizedEmail, 28),
				padRight(member.DisplayName, 20),
				strings.Join(cells, "  "))
		}

		fmt.Fprintf(os.Stdout, "\n%d members, synced %s\n", len(snapshot.Members), snapshot.SyncedAt.Format("2006-01-02 15:04"))

		return nil
	},
}

func init() {
	membersCmd.PersistentFlags().StringVar(&membersOrg, "org", "default", "organization key for the member snapshot")
	membersCmd.AddCommand(membersSyncCmd)
	membersCmd.AddCommand(membersListCmd)
	rootCmd.AddCommand(membersCmd)
}
