// File: cmd/blobnav/browse_cmd.go
package main

import (
	"blobnav/internal/flags"
	"blobnav/internal/ui/browser"

	"github.com/spf13/cobra"
)

func newBrowseCmd() *cobra.Command {
	var (
		providerName  string
		containerName string
		startPath     string
		downloadDir   string
	)

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a container interactively",
		Long: `Opens a full-screen browser on a container. Enter opens a folder, backspace moves up,
'd' downloads the selected blob into --dest, and 'x' deletes it after confirmation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return browser.Run(cmd.Context(), app.StorageService, providerName, containerName, startPath, downloadDir)
		},
	}
	browseCmd.Flags().StringVarP(&providerName, flags.Provider, flags.ProviderShort, "", "The provider where the container resides (required)")
	browseCmd.MarkFlagRequired(flags.Provider)
	browseCmd.Flags().StringVarP(&containerName, flags.Container, flags.ContainerShort, "", "The container to browse (required)")
	browseCmd.MarkFlagRequired(flags.Container)
	browseCmd.Flags().StringVar(&startPath, flags.Path, "", "Folder to start in")
	browseCmd.Flags().StringVar(&downloadDir, flags.Dest, ".", "Directory downloads are written to")

	return browseCmd
}
