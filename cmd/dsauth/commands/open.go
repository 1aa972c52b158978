package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/dsauth/internal/config"
	"github.com/systmms/dsauth/pkg/secret"
)

func NewOpenCommand(cfg *config.Config) *cobra.Command {
	var (
		kindName string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "open <protected>",
		Short: "Reveal the fields of a protected secret",
		Long: `Open deobfuscates a protected secret and prints its fields. The kind is
taken from the scheme prefix unless --kind is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[0]
			if raw == "-" {
				data, err := readAllTrim(cmd.InOrStdin())
				if err != nil {
					return err
				}
				raw = data
			}

			name := kindName
			if name == "" {
				s, ok := secret.SchemeOf(raw)
				if !ok {
					return fmt.Errorf("%w: no scheme prefix", secret.ErrMalformedSecret)
				}
				name = s
			}
			kind, err := kindFlag(name)
			if err != nil {
				return err
			}

			codec, err := loadCodec(cfg)
			if err != nil {
				return err
			}
			p, err := codec.Open(kind, raw)
			if err != nil {
				return err
			}
			values, err := p.Fields()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				doc := make(map[string]*string, len(values))
				for i, name := range kind.Fields {
					doc[name] = values[i]
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Scheme string             `json:"scheme"`
					Role   string             `json:"role"`
					Fields map[string]*string `json:"fields"`
				}{kind.Scheme, kind.Role.String(), doc})
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "scheme\t%s\n", kind.Scheme)
			for i, name := range kind.Fields {
				v := "<null>"
				if values[i] != nil {
					v = *values[i]
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\n", name, v)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kindName, "kind", "", "Kind of secret (default: from the scheme prefix)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print fields as JSON")

	return cmd
}
