// File: cmd/blobnav/serve_cmd.go
package main

import (
	"blobnav/internal/flags"
	"blobnav/internal/httpapi"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Long: `Starts an HTTP server exposing containers, listings, uploads, downloads, and deletes
for every configured provider. Handles are exchanged as URL strings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			app.Logger.Info("Starting HTTP API", "address", addr, "providers", app.ProviderFactory.GetConfiguredProviders())
			server := httpapi.NewServer(app.StorageService, app.ProviderFactory, app.Logger)
			return httpapi.ListenAndServe(cmd.Context(), addr, server.Handler(), app.Logger)
		},
	}
	serveCmd.Flags().StringVar(&addr, flags.Addr, "127.0.0.1:8080", "Listen address")

	return serveCmd
}
