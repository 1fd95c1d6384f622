// File: cmd/blobnav/blobs_cmd.go
package main

import (
	"blobnav/internal/flags"
	"blobnav/internal/ui/prompt"
	"blobnav/pkg/formatter"
	"fmt"

	"github.com/spf13/cobra"
)

type blobsFlags struct {
	provider  string
	container string
	path      string
	stream    bool
	force     bool
	output    string
}

func newBlobsCmd() *cobra.Command {
	cmdFlags := blobsFlags{}

	blobsCmd := &cobra.Command{
		Use:     "blobs",
		Aliases: []string{"blob", "objects"},
		Short:   "Browse, upload, download, and delete blobs",
		Long: `The blobs command works one folder level at a time inside a container.
Folders are virtual: they are the "/"-separated prefixes of blob names.`,
	}

	addTarget := func(c *cobra.Command) {
		c.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the container resides (required)")
		c.MarkFlagRequired(flags.Provider)
		c.Flags().StringVarP(&cmdFlags.container, flags.Container, flags.ContainerShort, "", "The container to operate on (required)")
		c.MarkFlagRequired(flags.Container)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List one folder level of a container",
		Long: `Lists the folders and blobs directly below --path (the container root by default).
With --stream, entries are printed in provider order as pages arrive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			format, err := formatter.ParseOutputFormat(cmdFlags.output)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cmdFlags.stream {
				count := 0
				for h, err := range app.StorageService.StreamEntries(cmd.Context(), cmdFlags.provider, cmdFlags.container, cmdFlags.path) {
					if err != nil {
						return err
					}
					if h.IsFile {
						fmt.Fprintf(out, "%s\t%d\n", h.FullName(), h.SizeBytes)
					} else {
						fmt.Fprintln(out, h.FullName())
					}
					count++
				}
				fmt.Fprintf(out, "%d entries\n", count)
				return nil
			}

			listing, err := app.StorageService.ListEntries(cmd.Context(), cmdFlags.provider, cmdFlags.container, cmdFlags.path)
			if err != nil {
				return err
			}
			if format != formatter.OutputTable {
				return formatter.Encode(out, format, formatter.NewListingView(listing))
			}
			fmt.Fprint(out, app.StorageFormatter.FormatListing(listing))
			return nil
		},
	}
	addTarget(listCmd)
	listCmd.Flags().StringVar(&cmdFlags.path, flags.Path, "", "Folder to list, e.g. 'reports/2024'")
	listCmd.Flags().BoolVar(&cmdFlags.stream, flags.Stream, false, "Print entries as they arrive instead of a sorted listing")
	listCmd.Flags().StringVarP(&cmdFlags.output, flags.Output, flags.OutputShort, "table", "Output format: table, json, or yaml")

	uploadCmd := &cobra.Command{
		Use:   "upload [local-file]",
		Short: "Upload a local file into a folder",
		Long:  `Uploads a local file into --path, keeping its file name. An existing blob with the same name is overwritten.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			fullName, err := app.StorageService.UploadFile(cmd.Context(), cmdFlags.provider, cmdFlags.container, cmdFlags.path, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s/%s on %s.\n", args[0], cmdFlags.container, fullName, cmdFlags.provider)
			return nil
		},
	}
	addTarget(uploadCmd)
	uploadCmd.Flags().StringVar(&cmdFlags.path, flags.Path, "", "Destination folder inside the container")

	downloadCmd := &cobra.Command{
		Use:   "download [blob-name] [destination]",
		Short: "Download a blob",
		Long:  `Downloads a blob to the destination path, or into the current directory under the blob's own name.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			dest := "."
			if len(args) == 2 {
				dest = args[1]
			}

			written, err := app.StorageService.DownloadTo(cmd.Context(), cmdFlags.provider, cmdFlags.container, args[0], dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s/%s to %s.\n", cmdFlags.container, args[0], written)
			return nil
		},
	}
	addTarget(downloadCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete [blob-name]",
		Short: "Delete a blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			fullName := args[0]
			p := prompt.NewStandardPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			confirmed, err := prompt.ConfirmUnlessForced(p, cmdFlags.force,
				fmt.Sprintf("This permanently deletes blob '%s' from container '%s'.", fullName, cmdFlags.container),
				fullName)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
				return nil
			}

			if err := app.StorageService.DeleteBlob(cmd.Context(), cmdFlags.provider, cmdFlags.container, fullName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s on %s.\n", cmdFlags.container, fullName, cmdFlags.provider)
			return nil
		},
	}
	addTarget(deleteCmd)
	deleteCmd.Flags().BoolVarP(&cmdFlags.force, flags.Force, flags.ForceShort, false, "Skip the confirmation prompt")

	resolveCmd := &cobra.Command{
		Use:   "resolve [url]",
		Short: "Show the blob or folder behind a handle URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			format, err := formatter.ParseOutputFormat(cmdFlags.output)
			if err != nil {
				return err
			}

			handle, err := app.StorageService.ResolveHandle(cmd.Context(), cmdFlags.provider, args[0])
			if err != nil {
				return err
			}
			if format != formatter.OutputTable {
				return formatter.Encode(cmd.OutOrStdout(), format, formatter.NewHandleView(handle))
			}
			fmt.Fprintln(cmd.OutOrStdout(), app.StorageFormatter.FormatHandle(handle))
			return nil
		},
	}
	resolveCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider that issued the URL (required)")
	resolveCmd.MarkFlagRequired(flags.Provider)
	resolveCmd.Flags().StringVarP(&cmdFlags.output, flags.Output, flags.OutputShort, "table", "Output format: table, json, or yaml")

	blobsCmd.AddCommand(listCmd, uploadCmd, downloadCmd, deleteCmd, resolveCmd)
	return blobsCmd
}
