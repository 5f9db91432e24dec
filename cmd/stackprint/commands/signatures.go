package commands

import (
	"github.com/kavinsood/stackprint/internal/config"
	"github.com/kavinsood/stackprint/internal/render"
	"github.com/spf13/cobra"
)

func newSignaturesCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signatures",
		Short: "List the active signature catalog",
		Long: `List every rule of the active signature catalog: the embedded one, or the
file given with --signatures after it passed validation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.printer(cmd, render.Mode(rt.cfg.Scan.Output)).Catalog(rt.client.Catalog())
		},
	}
	cmd.Flags().StringP("output", "o", config.DefaultConfig().Scan.Output, "Output format (text, json)")
	return cmd
}
