package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/dsauth/internal/config"
	"github.com/systmms/dsauth/pkg/obfuscation"
)

func NewStrategiesCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List obfuscation strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := ""
			if def, err := loadDefinition(cfg); err == nil {
				current = def.Obfuscation
			}

			out := cmd.OutOrStdout()
			for _, name := range obfuscation.Names() {
				marker := " "
				if name == current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(out, "%s %-10s %s\n", marker, name, strategyDescription(name))
			}
			return nil
		},
	}
}

func strategyDescription(name string) string {
	switch name {
	case obfuscation.IdentityName:
		return "No obfuscation"
	case obfuscation.Base64Name:
		return "Standard base64 encoding"
	case obfuscation.XORName:
		return "XOR with a fixed key and optional key fragment, then base64"
	default:
		return "No description available"
	}
}
