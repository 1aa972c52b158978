package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/dsauth/internal/config"
	"github.com/systmms/dsauth/pkg/scheme"
)

func NewTokenCommand(cfg *config.Config) *cobra.Command {
	var (
		accountID string
		tokenType string
		reveal    bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Acquire an auth token for an account",
		Long: `Token opens a session for the account: it acquires a token from the
configured account store, retrying transient failures, and prints the
protected token. With --reveal the token fields are printed as JSON instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cfg)
			if err != nil {
				return err
			}
			defer closeService(cfg, svc)

			sess, err := svc.OpenSession(cmd.Context(), scheme.Account{ID: accountID, Type: tokenType})
			if err != nil {
				return err
			}
			defer sess.Close()

			if sess.Refreshed() {
				logger(cfg).Debug("Token for %s was refreshed once", accountID)
			}

			out := cmd.OutOrStdout()
			if !reveal {
				tok, err := sess.Token()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, tok)
				return err
			}

			p, err := sess.Secret(svc.Codec())
			if err != nil {
				return err
			}
			values, err := p.Fields()
			if err != nil {
				return err
			}
			doc := make(map[string]*string, len(values))
			for i, name := range p.Kind().Fields {
				doc[name] = values[i]
			}
			return json.NewEncoder(out).Encode(doc)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account id")
	cmd.Flags().StringVar(&tokenType, "type", scheme.TokenType(scheme.PasswordHandler), "Auth token type")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the token fields instead of the protected token")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
