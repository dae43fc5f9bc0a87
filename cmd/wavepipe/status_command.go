package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"wavepipe/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check engine, ffmpeg and directory readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.health(cmd.Context())
			out := cmd.OutOrStdout()
			if jsonOutput {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, renderReport(report, ctx.configPath, isTerminal(out)))
			}
			if !report.Ready {
				return errors.New("wavepipe is not ready")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

type health int

const (
	healthOK health = iota
	healthDegraded
	healthFailed
)

var healthLabels = map[health]struct {
	label string
	color text.Colors
}{
	healthOK:       {"ok", text.Colors{text.FgGreen}},
	healthDegraded: {"degraded", text.Colors{text.FgYellow}},
	healthFailed:   {"failed", text.Colors{text.FgRed, text.Bold}},
}

func (h health) render(colorize bool) string {
	entry := healthLabels[h]
	if !colorize {
		return entry.label
	}
	return entry.color.Sprint(entry.label)
}

// renderReport lists every dependency and check in one table followed by
// the config path and the overall verdict.
func renderReport(report preflight.Report, configPath string, colorize bool) string {
	rows := make([][]string, 0, len(report.Dependencies)+len(report.Checks))
	for _, dep := range report.Dependencies {
		state := healthOK
		if !dep.Available {
			state = healthFailed
			if dep.Optional {
				state = healthDegraded
			}
		}
		rows = append(rows, []string{"binary", dep.Name, state.render(colorize), dep.Detail})
	}
	for _, check := range report.Checks {
		state := healthOK
		if !check.Passed {
			state = healthFailed
		}
		rows = append(rows, []string{"check", check.Name, state.render(colorize), check.Detail})
	}

	verdict := healthOK
	if !report.Ready {
		verdict = healthFailed
	}
	var b strings.Builder
	b.WriteString(renderTable([]column{left("Type"), left("Name"), left("State"), left("Detail")}, rows))
	fmt.Fprintf(&b, "\nConfig: %s\nReady:  %s (%s)", configPath, yesNo(report.Ready), verdict.render(colorize))
	return b.String()
}
