package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/model"
)

var testCmd = &cobra.Command{
	Use:   "test <provider>",
	Short: "Test a provider connection",
	Long: `Ask the backend to exercise the stored credential for a provider and
report the per-capability permission state. The cached integration's
permission set is refreshed from the result; nothing else changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := model.Provider(args[0])

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		result, err := svc.connectManager().TestConnection(cmd.Context(), provider)
		if err != nil {
			return err
		}

		if result.Success {
			fmt.Fprintf(os.Stdout, "%s connection OK\n", provider)
		} else {
			fmt.Fprintf(os.Stdout, "%s connection FAILED\n", provider)
		}

		if len(result.Permissions) == 0 {
			return nil
		}

		grantedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		deniedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		pendingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

		capabilities := make([]string, 0, len(result.Permissions))
		for capability := range result.Permissions {
			capabilities = append(capabilities, capability)
		}

		sort.Strings(capabilities)

		for _, capability := range capabilities {
			state := result.Permissions[capability]

			style := pendingStyle

			switch state {
			case model.PermissionGranted:
				style = grantedStyle
			case model.PermissionDenied, model.PermissionError:
				style = deniedStyle
			}

			fmt.Fprintf(os.Stdout, "  %s  %s\n", padRight(capability, 24), style.Render(string(state)))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
