// File: cmd/blobnav/config_cmd.go
package main

import (
	"blobnav/internal/config"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage provider configuration. You can set, get, list, and delete configuration values.
Every key can also be supplied through the environment, e.g. BLOBNAV_AWS_REGION.`,
	}

	configSetCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a configuration key-value pair",
		Long:  `Sets a configuration value. For example: 'blobnav config set azure.connection_string "UseDevelopmentStorage=true"'`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			key := strings.ToLower(args[0])
			value := args[1]

			if err := app.ConfigManager.SetValue(key, value); err != nil {
				return fmt.Errorf("error setting configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration set: %s = %s\n", key, displayValue(key, value))
			return nil
		},
	}

	configGetCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get a configuration value by key",
		Long:  `Retrieves a configuration value for a given key. For example: 'blobnav config get local.root'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			key := strings.ToLower(args[0])
			value, exists := app.ConfigManager.GetValue(key)
			if !exists {
				return fmt.Errorf("configuration key '%s' not found or not set", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, displayValue(key, value))
			return nil
		},
	}

	configDeleteCmd := &cobra.Command{
		Use:   "delete [key]",
		Short: "Delete a configuration value by key",
		Long:  `Deletes a configuration value for a given key. For example: 'blobnav config delete gcp.project'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			key := strings.ToLower(args[0])
			deleted, err := app.ConfigManager.DeleteValue(key)
			if err != nil {
				return fmt.Errorf("error deleting configuration: %w", err)
			}
			if !deleted {
				return fmt.Errorf("configuration key '%s' not found", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration key '%s' deleted\n", key)
			return nil
		},
	}

	configListCmd := &cobra.Command{
		Use:   "list",
		Short: "List all current configuration values",
		Long:  `Displays all the key-value pairs currently in effect, from the config file and the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			var lines []string
			for _, key := range sortedKeys() {
				if value, ok := app.ConfigManager.GetValue(key); ok {
					lines = append(lines, fmt.Sprintf("  %s = %s", key, displayValue(key, value)))
				}
			}

			out := cmd.OutOrStdout()
			if len(lines) == 0 {
				fmt.Fprintf(out, "No configuration values set. Use 'blobnav config set <key> <value>'. Supported keys: %s\n", strings.Join(sortedKeys(), ", "))
				return nil
			}

			fmt.Fprintf(out, "Current configuration (%s):\n", app.ConfigManager.Path())
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}

	for _, c := range []*cobra.Command{configSetCmd, configGetCmd, configDeleteCmd, configListCmd} {
		c.Annotations = map[string]string{configOnlyAnnotation: "true"}
	}

	configCmd.AddCommand(configSetCmd, configGetCmd, configDeleteCmd, configListCmd)
	return configCmd
}

// Masks secrets such as connection strings, keeping a short prefix for recognition
func displayValue(key, value string) string {
	if !config.IsSecretKey(key) {
		return value
	}
	if len(value) <= 12 {
		return strings.Repeat("*", len(value))
	}
	return value[:12] + "..."
}

func sortedKeys() []string {
	keys := config.SupportedKeys()
	sort.Strings(keys)
	return keys
}
