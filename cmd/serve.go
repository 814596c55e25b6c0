package cmd

import (
	"github.com/jonesrussell/north-cloud/content-mirror/internal/bootstrap"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, webhook worker and sync scheduler",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return bootstrap.Serve(cfgFile)
		},
	}
}
