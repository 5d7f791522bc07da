package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status [provider]",
	Short: "Show connection status",
	Long: `Show the connection status of one provider, or of all providers when
none is named. Status reads go through the local cache and fall back to the
backend on a miss.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		manager := svc.connectManager()

		providerList := model.Providers
		if len(args) == 1 {
			providerList = []model.Provider{model.Provider(args[0])}
		}

		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
		connectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		disconnectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

		fmt.Fprintf(os.Stdout, "%s  %s  %s  %s\n",
			headerStyle.Render(padRight("PROVIDER", 10)),
			headerStyle.Render(padRight("STATUS", 12)),
			headerStyle.Render(padRight("ACCOUNT", 24)),
			headerStyle.Render("CONNECTED"),
		)

		for _, provider := range providerList {
			integration, err := manager.Status(cmd.Context(), provider)

			switch {
			case errors.Is(err, apperr.ErrNotFound) || (err == nil && integration == nil):
				fmt.Fprintf(os.Stdout, "%s  %s\n",
					padRight(string(provider), 10),
					disconnectedStyle.Render("disconnected"))

			case err != nil:
				return err

			default:
				fmt.Fprintf(os.Stdout, "%s  %s  %s  %s\n",
					padRight(string(provider), 10),
					connectedStyle.Render(padRight("connected", 12)),
					padRight(integration.Name(), 24),
					integration.ConnectedAt.Format("2006-01-02"))
			}
		}

		return nil
	},
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}

	return s + strings.Repeat(" ", width-len(s))
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
