package cmd

import (
	"github.com/jonesrussell/north-cloud/content-mirror/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/migrate"
	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply the embedded database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(migrate.Up), string(migrate.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := migrate.ParseDirection(args[0])
			if err != nil {
				return err
			}

			cfg, err := bootstrap.LoadConfig(cfgFile)
			if err != nil {
				return err
			}

			if err = migrate.Run(cfg.Database.URL(), direction); err != nil {
				return err
			}
			cmd.Printf("migrations applied (%s)\n", direction)
			return nil
		},
	}
}
