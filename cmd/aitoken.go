package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/emberops/burnoutctl/internal/model"
	"github.com/emberops/burnoutctl/internal/token"
)

var aitokenProvider string

var aitokenCmd = &cobra.Command{
	Use:   "aitoken",
	Short: "Manage the AI-insights credential",
	Long: `The AI-insights feature runs on either the shared system credential or
a custom credential you provide. Switching between them is immediate and
confirmed with the backend; a rejected switch reverts.`,
}

var aitokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active credential source",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		controller := svc.tokenController()
		if err := controller.Load(cmd.Context()); err != nil {
			return err
		}

		view := controller.Current()

		fmt.Fprintf(os.Stdout, "Source: %s\n", view.Config.Source)

		if view.Config.Source == model.AISourceCustom && view.Config.HasToken {
			fmt.Fprintf(os.Stdout, "Custom token: %s (…%s)\n", view.Config.Provider, view.Config.TokenSuffix)
		}

		if !view.Config.HasToken {
			fmt.Fprintln(os.Stdout, "No credential connected.")
		}

		return nil
	},
}

var aitokenUseSystemCmd = &cobra.Command{
	Use:   "use-system",
	Short: "Switch to the shared system credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchTokenSource(cmd, model.AISourceSystem)
	},
}

var aitokenUseCustomCmd = &cobra.Command{
	Use:   "use-custom",
	Short: "Switch to your stored custom credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		return switchTokenSource(cmd, model.AISourceCustom)
	},
}

func switchTokenSource(cmd *cobra.Command, target model.AISource) error {
	svc, err := servicesFactory()
	if err != nil {
		return err
	}
	defer svc.Close()

	controller := svc.tokenController()
	if err := controller.Load(cmd.Context()); err != nil {
		return err
	}

	if err := controller.SwitchSource(cmd.Context(), target); err != nil {
		return err
	}

	view := controller.Current()
	if view.Phase == token.PhaseNeedsInput {
		fmt.Fprintln(os.Stdout, "No stored custom token. Add one with 'burnoutctl aitoken connect'.")

		return nil
	}

	fmt.Fprintf(os.Stdout, "AI token source is now %s.\n", view.Config.Source)

	return nil
}

var aitokenConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Store a custom AI credential",
	Long: `Prompt for a custom AI credential and submit it to the backend. The
token is read without echo and only its last four characters are kept
client-side for display.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := model.AIProvider(aitokenProvider)
		if provider != model.AIProviderAnthropic && provider != model.AIProviderOpenAI {
			return fmt.Errorf("unknown AI provider %q (anthropic or openai)", aitokenProvider)
		}

		rawToken, err := promptSecret(fmt.Sprintf("%s API token: ", provider))
		if err != nil {
			return err
		}

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		controller := svc.tokenController()
		if err := controller.Load(cmd.Context()); err != nil {
			return err
		}

		if err := controller.Connect(cmd.Context(), rawToken, provider, false); err != nil {
			return err
		}

		view := controller.Current()
		fmt.Fprintf(os.Stdout, "Custom %s token stored (…%s).\n", provider, view.Config.TokenSuffix)

		return nil
	},
}

var aitokenDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the stored custom credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "Remove the stored custom token? This cannot be undone. [y/N]: ")

		var response string
		_, _ = fmt.Scanln(&response)

		confirmed := response == "y" || response == "Y"

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		controller := svc.tokenController()
		if err := controller.Load(cmd.Context()); err != nil {
			return err
		}

		if err := controller.DisconnectCustom(cmd.Context(), confirmed); err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, "Custom token removed; using the system credential.")

		return nil
	},
}

// promptSecret reads a secret without echo when stdin is a terminal, and
// falls back to a plain line read for piped input.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)

		if err != nil {
			return "", err
		}

		return strings.TrimSpace(string(secret)), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func init() {
	aitokenConnectCmd.Flags().StringVar(&aitokenProvider, "provider", "anthropic", "AI provider of the credential (anthropic or openai)")
	aitokenCmd.AddCommand(aitokenStatusCmd)
	aitokenCmd.AddCommand(aitokenUseSystemCmd)
	aitokenCmd.AddCommand(aitokenUseCustomCmd)
	aitokenCmd.AddCommand(aitokenConnectCmd)
	aitokenCmd.AddCommand(aitokenDisconnectCmd)
	rootCmd.AddCommand(aitokenCmd)
}
