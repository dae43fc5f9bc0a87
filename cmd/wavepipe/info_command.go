package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wavepipe/internal/media"
	"wavepipe/internal/metadata"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <url>",
		Short: "Show normalized metadata for a page or playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := media.HostPolicy{}.Validate(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.openApp(appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.downloads.Describe(cmd.Context(), target)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderInfo(result))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the API response body as JSON")
	return cmd
}

func renderInfo(result metadata.Result) string {
	if c := result.Collection; c != nil {
		summary := renderTable(
			[]column{left("Playlist"), left("Author"), right("Videos"), right("Duration")},
			[][]string{{c.Title, c.Author, strconv.Itoa(c.TotalCount), c.Duration}},
		)
		if len(c.Tracks) == 0 {
			return summary
		}
		rows := make([][]string, 0, len(c.Tracks))
		for i, track := range c.Tracks {
			rows = append(rows, []string{strconv.Itoa(i + 1), track.Title, track.Duration, track.ID})
		}
		tracks := renderTable([]column{right("#"), left("Title"), right("Duration"), left("ID")}, rows)
		return summary + "\n" + tracks
	}
	item := result.Item
	if item == nil {
		return ""
	}
	return renderTable([]column{left("Field"), left("Value")}, [][]string{
		{"Title", item.Title},
		{"Author", item.Author},
		{"Duration", item.Duration},
		{"Thumbnail", item.Thumbnail},
	})
}
