package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:   "wavepipe",
		Short: "Media fetch proxy around yt-dlp",
		Long: "wavepipe serves /info and /download over HTTP, delegating metadata\n" +
			"extraction and transcoding to yt-dlp and ffmpeg.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	root.AddCommand(
		newServeCommand(ctx),
		newInfoCommand(ctx),
		newFetchCommand(ctx),
		newStatusCommand(ctx),
		newHistoryCommand(ctx),
		newSweepCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
