package cli

import (
	"fmt"
	"time"

	"notification-delivery/internal/auth/usecase"
	"notification-delivery/pkg/config"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		secret  string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the alert intake API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg := config.Load()
				if err := cfg.Validate(); err != nil {
					return err
				}
				secret = cfg.JWTSecret
			}
			if secret == config.DefaultJWTSecret {
				return config.ErrInsecureJWTSecret
			}

			token, err := usecase.NewTokenService(secret).IssueToken(subject, ttl)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "caller name recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret; defaults to JWT_SECRET")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
