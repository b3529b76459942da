package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/vcpull/internal/apiclient"
	"github.com/marcus/vcpull/internal/globalconfig"
	"github.com/marcus/vcpull/internal/output"
	"github.com/spf13/cobra"
)

func newAuthCmd(a *app) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}
	authCmd.AddCommand(newAuthLoginCmd(a), newAuthLogoutCmd(a), newAuthStatusCmd(a))
	return authCmd
}

func newAuthLoginCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				if !output.IsInteractive() {
					return errors.New("no token: pass --token or run in a terminal")
				}
				err := huh.NewForm(huh.NewGroup(
					huh.NewInput().
						Title("Access token").
						EchoMode(huh.EchoModePassword).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return errors.New("token required")
							}
							return nil
						}).
						Value(&token),
				)).RunWithContext(cmd.Context())
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				if err != nil {
					return err
				}
			}
			token = strings.TrimSpace(token)

			apiURL := globalconfig.GetAPIURL()
			user, err := apiclient.New(apiURL, token).GetUser(cmd.Context())
			if err != nil {
				return fmt.Errorf("verify token: %w", err)
			}

			creds := &globalconfig.AuthCredentials{
				Token:    token,
				UserID:   user.ID,
				Email:    user.Email,
				Username: user.Username,
				APIURL:   apiURL,
			}
			if err := globalconfig.SaveAuth(creds); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			a.out.Success("%s  Logged in as %s", output.EmojiSuccess, output.Bold(user.Username))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (prompted when omitted)")
	return cmd
}

func newAuthLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := globalconfig.ClearAuth(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			a.out.Info("Logged out.")
			return nil
		},
	}
}

func newAuthStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !globalconfig.IsAuthenticated() {
				a.out.Info("Not logged in.")
				return &ExitError{Code: 1}
			}
			apiURL := globalconfig.GetAPIURL()
			token := globalconfig.GetToken()

			user, err := apiclient.New(apiURL, token).GetUser(cmd.Context())
			if err != nil {
				if _, herr := apiclient.New(apiURL, "").HealthCheck(cmd.Context()); herr != nil {
					return fmt.Errorf("api unreachable at %s: %w", apiURL, herr)
				}
				return fmt.Errorf("token rejected: %w", err)
			}

			prefix := token
			if len(prefix) > 8 {
				prefix = prefix[:8] + "..."
			}
			a.out.Info("User:   %s (%s)", user.Username, user.Email)
			a.out.Info("API:    %s", apiURL)
			a.out.Info("Token:  %s", prefix)
			if team := globalconfig.GetCurrentTeam(); team != "" {
				a.out.Info("Team:   %s", team)
			}
			return nil
		},
	}
}
