package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/cli"
	"github.com/emberops/burnoutctl/internal/model"
)

var workspacesSelect string

var workspacesCmd = &cobra.Command{
	Use:   "workspaces <provider>",
	Short: "List or switch the active workspace",
	Long: `List the workspaces a provider exposes, or switch the active one.

Switching commits server-side first, then drops every cached integration
row and member snapshot for the provider, since the old workspace's data no
longer applies.

Examples:
  burnoutctl workspaces jira
  burnoutctl workspaces jira --select cloud-2
  burnoutctl workspaces jira --pick`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := model.Provider(args[0])

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		selector := svc.workspaceSelector()

		if workspacesSelect != "" {
			if err := selector.Select(cmd.Context(), provider, workspacesSelect); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "Active %s workspace is now %s.\n", provider, workspacesSelect)

			return nil
		}

		workspaces, err := selector.List(cmd.Context(), provider)
		if err != nil {
			return err
		}

		if len(workspaces) == 0 {
			fmt.Fprintf(os.Stdout, "%s exposes no workspaces.\n", provider)

			return nil
		}

		pick, _ := cmd.Flags().GetBool("pick")
		if pick && len(workspaces) > 1 {
			return runWorkspacePicker(cmd, provider, workspaces)
		}

		for _, ws := range workspaces {
			marker := " "
			if ws.IsCurrentlySelected {
				marker = "*"
			}

			fmt.Fprintf(os.Stdout, "%s %s  %s\n", marker, padRight(ws.ID, 20), ws.Name)
		}

		return nil
	},
}

func runWorkspacePicker(cmd *cobra.Command, provider model.Provider, workspaces []model.Workspace) error {
	picker := cli.NewWorkspacePicker(fmt.Sprintf("Select the active %s workspace", provider), workspaces)

	finalModel, err := tea.NewProgram(picker).Run()
	if err != nil {
		return err
	}

	chosen := finalModel.(cli.WorkspacePickerModel).Choice()
	if chosen == nil {
		fmt.Fprintln(os.Stdout, "Cancelled.")

		return nil
	}

	svc, err := servicesFactory()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.workspaceSelector().Select(cmd.Context(), provider, chosen.ID); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Active %s workspace is now %s.\n", provider, chosen.Name)

	return nil
}

func init() {
	workspacesCmd.Flags().StringVar(&workspacesSelect, "select", "", "switch to the given workspace ID")
	workspacesCmd.Flags().Bool("pick", false, "choose interactively")
	rootCmd.AddCommand(workspacesCmd)
}
