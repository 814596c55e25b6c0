package cmd

import (
	"fmt"
	"strconv"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/bootstrap"
	"github.com/spf13/cobra"
)

func refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [id]",
		Short: "Re-ingest the stored payload of one content record, or of all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				parsed, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || parsed <= 0 {
					return fmt.Errorf("invalid content id %q", args[0])
				}
				id = parsed
			}

			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				if id > 0 {
					if err := app.Syncer.Refresh(cmd.Context(), id); err != nil {
						return err
					}
					cmd.Printf("refreshed content %d\n", id)
					return nil
				}

				stats, err := app.Syncer.RefreshAll(cmd.Context())
				printStats(cmd, "refreshed", stats)
				return err
			})
		},
	}
}
