// File: internal/provider/registry/registry.go
package registry

import (
	"blobnav/internal/config"
	"blobnav/pkg/common"
	"blobnav/pkg/storage"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Defines the function signature for checking if a backend is configured
type ConfigCheck func(cfg *config.Config) bool

// Defines the function signature for opening a new ContainerStore for a backend
type Initializer func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ContainerStore, error)

// Holds the functions a backend package hands over when it registers itself
type Registration struct {
	Provider    common.Provider
	ConfigCheck ConfigCheck
	Initializer Initializer
	// Config key to point users at when the backend is not configured (e.g. 'aws.region')
	RequiredKey string
}

var (
	// Keyed by the lowercase provider name
	registrations = make(map[string]Registration)
	registryMu    sync.RWMutex
)

// Called from a backend package's init()
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := strings.ToLower(string(reg.Provider))
	if name == "" {
		panic("backend registration missing provider name")
	}
	if _, exists := registrations[name]; exists {
		panic(fmt.Sprintf("backend %s already registered", name))
	}
	if reg.ConfigCheck == nil {
		panic(fmt.Sprintf("backend %s registration missing ConfigCheck", name))
	}
	if reg.Initializer == nil {
		panic(fmt.Sprintf("backend %s registration missing Initializer", name))
	}

	registrations[name] = reg
}

// Returns a sorted list of all registered provider names
func SupportedProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	providers := make([]string, 0, len(registrations))
	for name := range registrations {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

func IsSupported(providerName string) bool {
	_, ok := Lookup(providerName)
	return ok
}

func Lookup(providerName string) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	reg, exists := registrations[strings.ToLower(providerName)]
	return reg, exists
}

// Returns a copy of the registry so callers never hold the lock
func All() map[string]Registration {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make(map[string]Registration, len(registrations))
	for k, v := range registrations {
		out[k] = v
	}
	return out
}
