package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mfulz/scenerelay/internal/configcli"
	"github.com/mfulz/scenerelay/internal/configloader"
	"github.com/mfulz/scenerelay/internal/journal"
	"github.com/mfulz/scenerelay/protocol"
)

var (
	historyLimit   int
	historyJournal string
)

// HistoryCmd prints the newest outcomes from the relayd journal.
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent command outcomes from the relayd journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := historyJournal
		if path == "" {
			path = configloader.MustGetConfig[*configcli.Config]().Journal
		}
		if path == "" {
			return fmt.Errorf("no journal configured; set journal in relayctl.yaml or pass --journal")
		}

		store, err := journal.Open(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		outcomes, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No outcomes recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tCOMMAND\tSTATUS\tMESSAGE")
		for _, o := range outcomes {
			status := "ok"
			if !o.Success {
				status = "failed"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.At.UTC().Format(protocol.TimestampLayout), o.Label, status, o.Message)
		}
		return w.Flush()
	},
}

func init() {
	HistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of outcomes to show (0 for all)")
	HistoryCmd.Flags().StringVar(&historyJournal, "journal", "", "journal path, overrides config")
}
