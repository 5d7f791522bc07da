package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/narrative"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show the latest AI burnout narrative",
	Long: `Fetch the AI-generated burnout narrative for your workspace and render
it block by block: headings, paragraphs, lists and code stay distinct
instead of being flattened into one string.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		resp, err := svc.client.Insights(cmd.Context())
		if err != nil {
			return err
		}

		blocks, err := narrative.ParseString(resp.Narrative)
		if err != nil {
			return err
		}

		renderBlocks(blocks)

		return nil
	},
}

func renderBlocks(blocks []narrative.Block) {
	headingStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	codeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	for _, block := range blocks {
		switch block.Kind {
		case narrative.KindHeading:
			fmt.Fprintf(os.Stdout, "\n%s\n", headingStyle.Render(block.Text))

		case narrative.KindParagraph:
			fmt.Fprintf(os.Stdout, "\n%s\n", block.Text)

		case narrative.KindList:
			fmt.Fprintln(os.Stdout)

			for i, item := range block.Items {
				marker := "•"
				if block.Ordered {
					marker = fmt.Sprintf("%d.", i+1)
				}

				fmt.Fprintf(os.Stdout, "  %s %s\n", marker, item)
			}

		case narrative.KindCode:
			fmt.Fprintf(os.Stdout, "\n%s\n", codeStyle.Render("  "+strings.Join(block.Lines, "\n  ")))
		}
	}
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}
