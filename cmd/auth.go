package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account string
		code    string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Gmail and Calendar access for an account",
		Long: `Print the Google consent URL for an account, then exchange the authorization
code and store the token. Pass --code to skip the prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
				return fmt.Errorf("google.client_id and google.client_secret must be configured (GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET)")
			}
			auth, err := google.NewAuthenticator(cfg.Google, "")
			if err != nil {
				return err
			}
			return runAuth(cmd.Context(), auth, account, code, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to authorize")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")
	return cmd
}

func runAuth(ctx context.Context, auth google.Authorizer, account, code string, in io.Reader, out io.Writer) error {
	if code == "" {
		authURL, err := auth.AuthURL(account)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Visit this URL to authorize account %q:\n\n  %s\n\nEnter the authorization code: ", account, authURL)

		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			return fmt.Errorf("no authorization code entered")
		}
		code = strings.TrimSpace(scanner.Text())
		if code == "" {
			return fmt.Errorf("no authorization code entered")
		}
	}

	if err := auth.SaveToken(ctx, account, code); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved for account %q.\n", account)
	return nil
}
