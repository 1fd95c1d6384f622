// File: internal/flags/flags.go
package flags

// Centralized definitions for CLI flags used across the application

const (
	// Provider flags are used when an operation targets a single, specific provider (e.g., create, upload, browse)
	Provider      = "provider"
	ProviderShort = "p"

	// Providers (plural) flags are used when an operation can target multiple providers (e.g., containers list)
	// Note: 'p' is reused for both singular and plural provider flags depending on the subcommand context
	Providers      = "providers"
	ProvidersShort = "p"

	// Container flags select the container for blob-level operations
	Container      = "container"
	ContainerShort = "c"

	// Path flags select the folder inside a container ("" is the root)
	Path = "path"

	// Public flags request anonymous read access when creating a container
	Public = "public"

	// Output flags select table, json or yaml rendering
	Output      = "output"
	OutputShort = "o"

	// Stream flags print entries as pages arrive instead of a sorted listing
	Stream = "stream"

	// Dest flags set the directory the browser downloads into
	Dest = "dest"

	// Addr flags set the listen address of the HTTP API
	Addr = "addr"

	// Force flags are used to bypass interactive confirmation prompts for destructive operations
	Force      = "force"
	ForceShort = "f"

	// Debug flags are used to enable verbose logging
	Debug      = "debug"
	DebugShort = "d"

	// Config flags point at an alternate config file
	Config = "config"
)
