package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/spf13/cobra"
)

func modelsCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the remote model catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				if refresh {
					if err := app.Models.Forget(cmd.Context()); err != nil {
						return err
					}
				}

				models, err := app.Models.All(cmd.Context())
				if err != nil {
					return err
				}
				renderModels(cmd.OutOrStdout(), models)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "invalidate the cached catalog first")
	return cmd
}

func renderModels(w io.Writer, models []domain.ModelRef) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name"})
	for _, m := range models {
		t.AppendRow(table.Row{m.ID, m.Name})
	}
	t.AppendFooter(table.Row{"Total", len(models)})
	t.Render()
}
