package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/dsauth/internal/config"
)

func NewCompletionCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `To load completions:

Bash:
  $ source <(dsauth completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ dsauth completion bash > /etc/bash_completion.d/dsauth
  # macOS:
  $ dsauth completion bash > $(brew --prefix)/etc/bash_completion.d/dsauth

Zsh:
  $ dsauth completion zsh > "${fpath[1]}/_dsauth"

Fish:
  $ dsauth completion fish > ~/.config/fish/completions/dsauth.fish

PowerShell:
  PS> dsauth completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}

	return cmd
}
