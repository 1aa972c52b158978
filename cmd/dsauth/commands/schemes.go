package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/dsauth/internal/config"
	"github.com/systmms/dsauth/pkg/scheme"
)

func NewSchemesCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "schemes",
		Short: "List configured authentication schemes",
		Long: `Display the scheme bindings of the configuration: each URI scheme tag,
the handler bound to it, its display label and the kinds it stores and issues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cfg)
			if err != nil {
				return err
			}
			defer closeService(cfg, svc)
			reg := svc.Registry()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "TAG\tHANDLER\tLABEL\tTOKEN TYPE\tSTORED\tTOKEN\n")
			_, _ = fmt.Fprintf(w, "---\t-------\t-----\t----------\t------\t-----\n")
			for _, b := range reg.Bindings() {
				h, err := reg.Lookup(b.Tag)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					b.Tag, b.Handler, h.Label(), scheme.TokenType(b.Tag), h.StoredKind(), h.TokenKind())
			}
			return w.Flush()
		},
	}
}
