package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kavinsood/stackprint/internal/render"
	"github.com/kavinsood/stackprint/stackprint"
	"github.com/spf13/cobra"
)

func newInteractiveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for URLs and fingerprint them one at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, rt)
		},
	}
}

// runInteractive shows the banner, then loops: read a URL, print its
// findings, ask whether to continue. Only "y" or "yes" continues.
func runInteractive(cmd *cobra.Command, rt *runtime) error {
	out := cmd.OutOrStdout()
	in := bufio.NewScanner(cmd.InOrStdin())
	printer := rt.printer(cmd, render.ModeText)

	render.Banner(out)

	for {
		target, ok := prompt(in, out, "Enter the URL to analyze: ")
		if !ok {
			return nil
		}
		if target == "" {
			fmt.Fprintln(out, "No URL given.")
		} else {
			report, err := rt.client.FingerprintURL(cmd.Context(), target)
			if err := printer.Result(stackprint.Result{URL: target, Report: report, Err: err}); err != nil {
				return err
			}
		}

		answer, ok := prompt(in, out, "\nAnalyze another URL? (y/n): ")
		if !ok || !wantsMore(answer) {
			return nil
		}
		fmt.Fprintln(out)
	}
}

func prompt(in *bufio.Scanner, out io.Writer, question string) (string, bool) {
	fmt.Fprint(out, question)
	if !in.Scan() {
		fmt.Fprintln(out)
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

func wantsMore(answer string) bool {
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}
