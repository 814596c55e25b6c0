// Package cmd implements the content-mirror command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/bootstrap"
	"github.com/spf13/cobra"
)

// version can be set at build time via -ldflags.
var version = "dev"

// cfgFile holds the path to the configuration file.
var cfgFile string

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "content-mirror",
		Short:         "Mirror visual CMS content into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $CONFIG_PATH or ./config.yml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Printf("content-mirror version %s\n", version)
			},
		},
		serveCommand(),
		fetchCommand(),
		refreshCommand(),
		migrateCommand(),
		modelsCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp wires the application for a one-shot command and releases it afterwards.
func withApp(ctx context.Context, fn func(app *bootstrap.App) error) error {
	app, err := bootstrap.Init(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()
	defer app.Close()

	return fn(app)
}
