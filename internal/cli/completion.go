package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for amp.

To load completions:

Bash:
  $ source <(amp completion bash)
  # Or add to ~/.bashrc:
  $ echo 'source <(amp completion bash)' >> ~/.bashrc

Zsh:
  $ source <(amp completion zsh)
  # Or add to ~/.zshrc:
  $ echo 'source <(amp completion zsh)' >> ~/.zshrc

Fish:
  $ amp completion fish | source
  # Or add to config:
  $ amp completion fish > ~/.config/fish/completions/amp.fish

PowerShell:
  PS> amp completion powershell | Out-String | Invoke-Expression
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletionV2(out, true)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	})
}
