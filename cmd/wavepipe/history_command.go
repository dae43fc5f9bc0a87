package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent info and download requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(appOptions{history: true})
			if err != nil {
				return err
			}
			defer a.Close()
			if a.history == nil {
				return errors.New("request history is disabled (set history.enabled = true)")
			}

			entries, err := a.history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No requests recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				size := ""
				if entry.Bytes > 0 {
					size = byteSize(entry.Bytes)
				}
				rows = append(rows, []string{
					entry.CreatedAt.Local().Format(time.DateTime),
					string(entry.Kind),
					entry.Format,
					entry.Outcome,
					entry.URL,
					size,
					strconv.FormatInt(entry.Duration, 10) + " ms",
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				left("When"), left("Kind"), left("Format"), left("Outcome"), left("URL"), right("Size"), right("Took"),
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}
