// File: cmd/blobnav/containers_cmd.go
package main

import (
	"blobnav/internal/flags"
	"blobnav/internal/provider/factory"
	"blobnav/internal/provider/registry"
	"blobnav/internal/ui/prompt"
	"blobnav/pkg/formatter"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type containersFlags struct {
	providersList []string
	provider      string
	public        bool
	force         bool
	output        string
}

func newContainersCmd() *cobra.Command {
	cmdFlags := containersFlags{}

	containersCmd := &cobra.Command{
		Use:     "containers",
		Aliases: []string{"container", "buckets"},
		Short:   "Manage storage containers (buckets)",
		Long:    `The containers command lists, creates, and deletes containers on configured providers.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List containers",
		Long: `Lists containers. If no flags are provided, it queries all configured providers.
Use the --providers flag to specify which providers to query (e.g., --providers azure,aws).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			format, err := formatter.ParseOutputFormat(cmdFlags.output)
			if err != nil {
				return err
			}

			providersToQuery, err := resolveProvidersForList(cmdFlags.providersList, app.ProviderFactory)
			if err != nil {
				return err
			}

			containers, err := app.StorageService.ListAllContainers(cmd.Context(), providersToQuery)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != formatter.OutputTable {
				return formatter.Encode(out, format, formatter.NewContainerViews(containers))
			}

			switch {
			case len(containers) > 0:
				fmt.Fprintln(out, app.StorageFormatter.FormatContainerList(containers))
			case len(providersToQuery) == 0:
				fmt.Fprintf(out, "No providers configured. Use 'blobnav config set'. Supported providers: %s\n", strings.Join(registry.SupportedProviders(), ", "))
			default:
				fmt.Fprintln(out, "No containers found.")
			}
			return nil
		},
	}
	listCmd.Flags().StringSliceVarP(&cmdFlags.providersList, flags.Providers, flags.ProvidersShort, []string{}, "Specify providers to query (comma-separated). Defaults to all configured providers.")
	listCmd.Flags().StringVarP(&cmdFlags.output, flags.Output, flags.OutputShort, "table", "Output format: table, json, or yaml")

	createCmd := &cobra.Command{
		Use:   "create [container-name]",
		Short: "Create a new container",
		Long:  `Creates a new container on the specified provider. Use --public to allow anonymous read access.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			containerName := args[0]
			if err := app.StorageService.CreateContainer(cmd.Context(), cmdFlags.provider, containerName, cmdFlags.public); err != nil {
				return fmt.Errorf("error creating container '%s' on %s: %w", containerName, cmdFlags.provider, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Container '%s' created successfully on provider %s.\n", containerName, cmdFlags.provider)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider to create the container on (required)")
	createCmd.MarkFlagRequired(flags.Provider)
	createCmd.Flags().BoolVar(&cmdFlags.public, flags.Public, false, "Allow anonymous read access to the container's blobs")

	deleteCmd := &cobra.Command{
		Use:   "delete [container-name]",
		Short: "Delete a container and all of its blobs",
		Long: `Deletes a container on the specified provider. You must confirm by typing the container name
unless --force is given. Some providers keep the name reserved for a while after deletion.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			containerName := args[0]
			p := prompt.NewStandardPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			confirmed, err := prompt.ConfirmUnlessForced(p, cmdFlags.force,
				fmt.Sprintf("This permanently deletes container '%s' on %s and every blob in it.", containerName, cmdFlags.provider),
				containerName)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
				return nil
			}

			if err := app.StorageService.DeleteContainer(cmd.Context(), cmdFlags.provider, containerName); err != nil {
				return fmt.Errorf("error deleting container '%s' on %s: %w", containerName, cmdFlags.provider, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Container '%s' deleted successfully from provider %s.\n", containerName, cmdFlags.provider)
			return nil
		},
	}
	deleteCmd.Flags().StringVarP(&cmdFlags.provider, flags.Provider, flags.ProviderShort, "", "The provider where the container resides (required)")
	deleteCmd.MarkFlagRequired(flags.Provider)
	deleteCmd.Flags().BoolVarP(&cmdFlags.force, flags.Force, flags.ForceShort, false, "Skip the confirmation prompt")

	containersCmd.AddCommand(listCmd, createCmd, deleteCmd)
	return containersCmd
}

func resolveProvidersForList(requestedProviders []string, f *factory.Factory) ([]string, error) {
	if len(requestedProviders) == 0 {
		return f.GetConfiguredProviders(), nil
	}

	var validatedProviders []string
	var invalidProviders []string
	seen := make(map[string]bool)

	for _, p := range requestedProviders {
		p = strings.ToLower(strings.TrimSpace(p))

		if seen[p] {
			continue
		}
		seen[p] = true

		if !registry.IsSupported(p) {
			invalidProviders = append(invalidProviders, p)
			continue
		}
		if !f.IsConfigured(p) {
			return nil, fmt.Errorf("provider '%s' was requested but is not configured. Use 'blobnav config set %s.<key> <value>'", p, p)
		}
		validatedProviders = append(validatedProviders, p)
	}

	if len(invalidProviders) > 0 {
		return nil, fmt.Errorf("unsupported providers requested: %v. Supported providers are: %v", invalidProviders, registry.SupportedProviders())
	}

	return validatedProviders, nil
}
