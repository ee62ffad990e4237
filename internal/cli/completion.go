package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the command that emits shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Set up tab completion for the fretline command.

To load completions:

Bash:
  $ source <(fretline completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ fretline completion bash > /etc/bash_completion.d/fretline
  # macOS:
  $ fretline completion bash > $(brew --prefix)/etc/bash_completion.d/fretline

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ fretline completion zsh > "${fpath[1]}/_fretline"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ fretline completion fish | source

  # To load completions for each session, execute once:
  $ fretline completion fish > ~/.config/fish/completions/fretline.fish

PowerShell:
  PS> fretline completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> fretline completion powershell > fretline.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
