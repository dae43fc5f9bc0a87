package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"wavepipe/internal/config"
	"wavepipe/internal/logging"
	"wavepipe/internal/media"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a page as mp3 or mp4 into a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := media.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			target, err := media.HostPolicy{}.Validate(args[0])
			if err != nil {
				return err
			}
			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = "."
			}
			if dir, err = config.ExpandPath(dir); err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			a, err := ctx.openApp(appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			dl, err := a.downloads.Fetch(cmd.Context(), media.Request{URL: target, Format: format})
			if err != nil {
				return err
			}
			defer dl.Body.Close()

			path := filepath.Join(dir, dl.Filename)
			pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
			if err != nil {
				return fmt.Errorf("create pending file: %w", err)
			}
			defer func() {
				if err := pending.Cleanup(); err != nil {
					a.logger.Debug("cleanup pending file", logging.Error(err))
				}
			}()

			written, err := io.Copy(pending, dl.Body)
			if err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			if err := pending.CloseAtomicallyReplace(); err != nil {
				return fmt.Errorf("atomically replace %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", path, byteSize(written))
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "mp3", "Output format: mp3 or mp4")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the file into")
	return cmd
}

// byteSize renders n with binary units, e.g. "1.5 MiB".
func byteSize(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}
