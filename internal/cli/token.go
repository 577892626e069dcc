package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/99minutos/tracking-live/internal/api/middleware"
	"github.com/99minutos/tracking-live/internal/core/domain"
)

type tokenOptions struct {
	Secret   string
	Username string
	Role     string
	ClientID string
	TTL      time.Duration
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for trackingd",
		Long: `Mint an HS256 access token signed with the service secret. Intended for
development and operations; production clients get tokens from the identity
provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Role {
			case domain.RoleAdmin, domain.RoleCarrier, domain.RoleViewer:
			default:
				return fmt.Errorf("unknown role %q", opts.Role)
			}
			if opts.Username == "" {
				return errors.New("--username is required")
			}

			tok, err := middleware.IssueToken(opts.Secret, middleware.Claims{
				Username: opts.Username,
				Role:     opts.Role,
				ClientID: opts.ClientID,
			}, opts.TTL)
			if err != nil {
				return err
			}

			out := struct {
				Token string `json:"token"`
			}{tok}
			return rootOpts.printer(cmd).print(out, func(w io.Writer) {
				fmt.Fprintln(w, tok)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
	cmd.Flags().StringVar(&opts.Username, "username", "", "token subject")
	cmd.Flags().StringVar(&opts.Role, "role", domain.RoleViewer, "admin, carrier or viewer")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "client the subject acts for")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime (0 for none)")
	return cmd
}
