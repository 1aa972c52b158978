package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systmms/dsauth/internal/config"
	"github.com/systmms/dsauth/pkg/secret"
)

func NewSealCommand(cfg *config.Config) *cobra.Command {
	var (
		kindName string
		fields   []string
	)

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Seal field values into a protected secret",
		Long: `Seal joins the given field values, obfuscates them with the configured
strategy and prints the protected "<scheme>:<blob>" string.

Fields that are not given are sealed as null values.`,
		Example: `  dsauth seal --kind user_creds_secret --field username=alice --field password=s3cret`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindFlag(kindName)
			if err != nil {
				return err
			}
			codec, err := loadCodec(cfg)
			if err != nil {
				return err
			}

			parts := make([]*string, kind.Arity())
			for _, f := range fields {
				name, value, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("invalid --field %q, expected name=value", name)
				}
				i := kind.FieldIndex(name)
				if i < 0 {
					return fmt.Errorf("kind %s has no field %q (fields: %s)", kind.Scheme, name, strings.Join(kind.Fields, ", "))
				}
				parts[i] = secret.String(value)
			}

			p, err := codec.Seal(kind, parts...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), p.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&kindName, "kind", secret.UserCredentialsSecret.Scheme, "Kind of secret to seal")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Field value as name=value (repeatable)")

	return cmd
}
