package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale workspace files left by interrupted downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(appOptions{history: true})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.sweep(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.Skipped {
				fmt.Fprintln(out, "Another sweep is running; nothing done")
				return nil
			}
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			fmt.Fprintf(out, "Removed %d file(s), reclaimed %s\n", len(result.Removed), byteSize(result.Bytes))
			return nil
		},
	}
}
