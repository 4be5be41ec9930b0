package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quiz-results-service/internal/auth"
	"quiz-results-service/internal/config"
)

// NewTokenCmd mints a session token, standing in for the OAuth login.
func NewTokenCmd(configPath *string) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an e-mail address",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 30*24*time.Hour), cfg.Auth.Admins)
			if err != nil {
				return err
			}
			token, expires, err := issuer.Issue(email, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "# admin=%t expires=%s\n", issuer.IsAdmin(email), expires.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "e-mail address of the user")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
