package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mfulz/scenerelay/internal/controlcli"
)

// ShellCmd starts the interactive line mode.
var ShellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive command shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return controlcli.NewShell(sender(), cmd.OutOrStdout()).Run(cmd.Context(), cmd.InOrStdin())
	},
}
