// File: cmd/blobnav/root.go
package main

import (
	"blobnav/internal/flags"
	"blobnav/internal/logger"

	"github.com/spf13/cobra"
)

// Annotation marking commands that only need the config manager
const configOnlyAnnotation = "blobnav/config-only"

func newRootCmd() *cobra.Command {
	var (
		debug      bool
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:   "blobnav",
		Short: "blobnav navigates blob storage across cloud providers.",
		Long: `A unified CLI to browse containers and blobs on Azure Blob Storage, Amazon S3,
Google Cloud Storage, their local emulators, and plain local directories.
Configure your providers once and navigate folders the same way everywhere.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLogger(debug)

			_, configOnly := cmd.Annotations[configOnlyAnnotation]
			app, err := newApp(configPath, configOnly, log)
			if err != nil {
				log.Error("Failed to initialize application", "error", err)
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), app))
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, flags.Debug, flags.DebugShort, false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, flags.Config, "", "Path to the config file (default ~/.config/blobnav/config.yaml)")

	rootCmd.AddCommand(
		newContainersCmd(),
		newBlobsCmd(),
		newBrowseCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}
