package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/dsauth/internal/accountstore"
	"github.com/systmms/dsauth/internal/config"
	"github.com/systmms/dsauth/pkg/scheme"
)

func NewAccountCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage stored account secrets",
	}

	cmd.AddCommand(
		newAccountAddCommand(cfg),
		newAccountRemoveCommand(cfg),
		newAccountInitCommand(cfg),
	)
	return cmd
}

func newAccountAddCommand(cfg *config.Config) *cobra.Command {
	var (
		accountID string
		tokenType string
		username  string
		password  string
		realm     string
		stdin     bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Seal and store the secret of an account",
		Long: `Add seals the given credentials in the stored-secret kind of the scheme
handler and writes the result to the configured account store.

Credentials that are not given are stored as null values.`,
		Example: `  dsauth account add --account alice --type password: --username alice --password-stdin`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cfg)
			if err != nil {
				return err
			}
			defer closeService(cfg, svc)
			if err := requirePersistentStore(svc); err != nil {
				return err
			}

			flags := cmd.Flags()
			optional := func(name, value string) *string {
				if !flags.Changed(name) {
					return nil
				}
				return &value
			}

			pw := optional("password", password)
			if stdin {
				v, err := readAllTrim(cmd.InOrStdin())
				if err != nil {
					return err
				}
				pw = &v
			}

			err = svc.AddAccount(cmd.Context(), accountID, tokenType,
				optional("username", username), pw, optional("realm", realm))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s secret for %s in %s\n", tokenType, accountID, svc.Store().Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account id")
	cmd.Flags().StringVar(&tokenType, "type", scheme.TokenType(scheme.PasswordHandler), "Auth token type")
	cmd.Flags().StringVar(&username, "username", "", "User name")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&realm, "realm", "", "Realm")
	cmd.Flags().BoolVar(&stdin, "password-stdin", false, "Read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func newAccountRemoveCommand(cfg *config.Config) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete the stored secret of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cfg)
			if err != nil {
				return err
			}
			defer closeService(cfg, svc)
			if err := requirePersistentStore(svc); err != nil {
				return err
			}
			if err := svc.RemoveAccount(cmd.Context(), accountID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", accountID)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account id")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newAccountInitCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the accounts table of a SQL account store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cfg)
			if err != nil {
				return err
			}
			defer closeService(cfg, svc)
			sqlStore, ok := svc.Store().(*accountstore.SQLStore)
			if !ok {
				logger(cfg).Info("Account store %s needs no initialization", svc.Store().Name())
				return nil
			}
			if err := sqlStore.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Accounts table is ready")
			return nil
		},
	}
}
