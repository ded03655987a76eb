// Command relayctl sends commands to a running relayd and reads its outcome
// journal. It is the command line counterpart of the interactive shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfulz/scenerelay/cmd/relayctl/cmd"
	"github.com/mfulz/scenerelay/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "relayctl",
	Short:         "Client for the scene relay daemon",
	Long:          `relayctl sends fire-and-forget commands to relayd. The relay never replies; use "relayctl history" to see outcomes when the journal is enabled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		return cmd.Setup()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cmd.Options.ConfigPath, "config", "c", "", "path to relayctl.yaml")
	rootCmd.PersistentFlags().StringVarP(&cmd.Options.Addr, "addr", "a", "", "relay address (host:port), overrides config")
	rootCmd.PersistentFlags().StringVarP(&cmd.Options.User, "user", "u", "", "user name stamped on messages, overrides config")

	rootCmd.AddCommand(cmd.SendCmd)
	rootCmd.AddCommand(cmd.CubeCmd)
	rootCmd.AddCommand(cmd.SphereCmd)
	rootCmd.AddCommand(cmd.DeleteAllCmd)
	rootCmd.AddCommand(cmd.ExecCmd)
	rootCmd.AddCommand(cmd.RenderCmd)
	rootCmd.AddCommand(cmd.TextCmd)
	rootCmd.AddCommand(cmd.ShellCmd)
	rootCmd.AddCommand(cmd.HistoryCmd)
}
