package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberops/burnoutctl/internal/connect"
	"github.com/emberops/burnoutctl/internal/model"
	"github.com/emberops/burnoutctl/internal/providers"
)

var (
	connectListen  bool
	connectDevice  bool
	connectManual  bool
	connectTimeout time.Duration
)

var connectCmd = &cobra.Command{
	Use:   "connect <provider>",
	Short: "Connect a provider to your workspace",
	Long: `Start the OAuth flow for a provider and print the authorization URL.

With --listen, a local callback server receives the provider's redirect and
completes the exchange automatically; otherwise finish with 'burnoutctl
callback' once the provider redirects you.

With --device (GitHub only), use the device authorization flow instead of a
browser redirect, for headless hosts.

With --manual (GitHub and Jira), enter credentials by hand and validate them
against the provider before going anywhere near the backend. Only the token
suffix is ever shown back.

Examples:
  burnoutctl connect jira
  burnoutctl connect github --listen
  burnoutctl connect github --device
  burnoutctl connect jira --manual`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := model.Provider(args[0])

		svc, err := servicesFactory()
		if err != nil {
			return err
		}
		defer svc.Close()

		if connectDevice {
			return runDeviceConnect(cmd.Context(), provider)
		}

		if connectManual {
			return runManualConnect(cmd.Context(), provider)
		}

		manager := svc.connectManager()

		authURL, err := manager.InitiateConnect(cmd.Context(), provider)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Open this URL to authorize %s:\n\n  %s\n\n", provider, authURL)

		if !connectListen {
			fmt.Fprintf(os.Stdout, "After authorizing, run:\n  burnoutctl callback %s --code <code> --state <state>\n", provider)

			return nil
		}

		listener := connect.NewListener(provider, 0)
		if err := listener.Start(); err != nil {
			return fmt.Errorf("start callback listener: %w", err)
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = listener.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stdout, "Waiting for the provider to redirect to %s ...\n", listener.RedirectURI())

		result, err := listener.Wait(cmd.Context(), connectTimeout)
		if err != nil {
			return err
		}

		outcome, err := manager.HandleCallback(cmd.Context(), provider, result.Code, result.State, result.Err)
		if err != nil {
			return err
		}

		if !outcome.Connected {
			return fmt.Errorf("connection failed: %s", outcome.Reason)
		}

		fmt.Fprintf(os.Stdout, "%s connected.\n", provider)

		return nil
	},
}

func runDeviceConnect(ctx context.Context, provider model.Provider) error {
	if provider != model.ProviderGitHub {
		return fmt.Errorf("device flow is only available for github")
	}

	flow := &providers.DeviceFlow{
		DisplayCode: func(code, verificationURL string) {
			fmt.Fprintf(os.Stdout, "Open %s and enter the code: %s\n", verificationURL, code)
		},
	}

	result, err := flow.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Authorized as %s (token …%s).\n", result.Login, result.TokenSuffix)
	fmt.Fprintln(os.Stdout, "Submit this token with the backend's manual GitHub connect flow to finish.")

	return nil
}

func runManualConnect(ctx context.Context, provider model.Provider) error {
	switch provider {
	case model.ProviderGitHub:
		token, err := promptSecret("GitHub personal access token: ")
		if err != nil {
			return err
		}

		validation, err := providers.ValidateGitHubToken(ctx, token)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Token valid for %s (…%s).\n", validation.Login, model.Suffix(token))
	case model.ProviderJira:
		creds := providers.JiraCredentials{}

		fmt.Fprint(os.Stderr, "Jira site URL (https://...): ")
		if _, err := fmt.Fscanln(os.Stdin, &creds.BaseURL); err != nil {
			return err
		}

		fmt.Fprint(os.Stderr, "Account email: ")
		if _, err := fmt.Fscanln(os.Stdin, &creds.Email); err != nil {
			return err
		}

		token, err := promptSecret("API token: ")
		if err != nil {
			return err
		}
		creds.Token = token

		validation, err := providers.ValidateJiraCredentials(ctx, creds)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Credentials valid for %s (…%s).\n", validation.DisplayName, model.Suffix(token))
	default:
		return fmt.Errorf("manual credential entry is only available for github and jira")
	}

	fmt.Fprintln(os.Stdout, "Finish the connection from the web app's manual connect form; burnoutctl keeps no copy of the credential.")

	return nil
}

func init() {
	connectCmd.Flags().BoolVar(&connectListen, "listen", false, "receive the OAuth redirect on a local callback server")
	connectCmd.Flags().BoolVar(&connectDevice, "device", false, "use the GitHub device authorization flow")
	connectCmd.Flags().BoolVar(&connectManual, "manual", false, "enter and validate provider credentials by hand")
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 5*time.Minute, "how long to wait for the redirect with --listen")
	rootCmd.AddCommand(connectCmd)
}
