package commands

import (
	"fmt"

	"github.com/kavinsood/stackprint/internal/config"
	"github.com/kavinsood/stackprint/internal/render"
	"github.com/kavinsood/stackprint/stackprint"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newScanCommand(rt *runtime) *cobra.Command {
	def := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "scan URL [URL...]",
		Short: "Fingerprint one or more URLs",
		Example: `  stackprint scan example.com
  stackprint scan --output json https://a.example https://b.example
  stackprint scan --concurrency 8 --timeout 5s $(cat urls.txt)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, rt, args)
		},
	}

	cmd.Flags().IntP("concurrency", "n", def.Scan.Concurrency, "Number of URLs fingerprinted in parallel")
	cmd.Flags().StringP("output", "o", def.Scan.Output, "Output format (text, json)")
	return cmd
}

func runScan(cmd *cobra.Command, rt *runtime, urls []string) error {
	log.Info().Int("targets", len(urls)).Int("concurrency", rt.cfg.Scan.Concurrency).Msg("scan started")

	results := rt.client.FingerprintAll(cmd.Context(), urls, rt.cfg.Scan.Concurrency)

	failed, code := 0, 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		if c := stackprint.ExitCode(r.Err); c > code {
			code = c
		}
		log.Warn().Err(r.Err).Str("url", r.URL).Str("kind", string(stackprint.KindOf(r.Err))).Msg("fingerprint failed")
	}

	if err := rt.printer(cmd, render.Mode(rt.cfg.Scan.Output)).Results(results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	log.Info().Int("targets", len(urls)).Int("failed", failed).Msg("scan finished")
	if failed > 0 {
		return &exitError{code: code, err: fmt.Errorf("%d of %d URLs failed", failed, len(urls)), reported: true}
	}
	return nil
}
