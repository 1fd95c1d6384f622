// File: internal/provider/providers.go
package provider

// This file explicitly imports all backend implementation packages.
// The blank identifier (_) ensures that the init() function of each package runs,
// allowing them to register themselves with the central provider registry.
//
// To add a new backend, implement the ContainerStore in pkg/storage/<name>,
// have it self-register in its init() function, and then add the import here.

import (
	_ "blobnav/pkg/storage/aws"
	_ "blobnav/pkg/storage/azure"
	_ "blobnav/pkg/storage/gcp"
	_ "blobnav/pkg/storage/local"
)
