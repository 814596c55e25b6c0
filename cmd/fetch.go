package cmd

import (
	"github.com/jonesrussell/north-cloud/content-mirror/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/mirror"
	"github.com/spf13/cobra"
)

func fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [model]",
		Short: "Ingest every entry of one model, or of every model in the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				var (
					stats mirror.Stats
					err   error
				)
				if len(args) == 1 {
					stats, err = app.Syncer.FetchModel(cmd.Context(), args[0])
				} else {
					stats, err = app.Syncer.FetchAll(cmd.Context())
				}
				printStats(cmd, "fetched", stats)
				return err
			})
		},
	}
}

func printStats(cmd *cobra.Command, verb string, stats mirror.Stats) {
	cmd.Printf("%s %d entries (%d failed)\n", verb, stats.Ingested, stats.Failed)
}
