// Package modkit is the wiring contract between binaries and service modules
package modkit

import (
	"context"

	phttp "enrollcam/internal/platform/net/http"
)

// Module is what a binary mounts and shuts down
type Module interface {
	Name() string
	// MountRoutes attaches the module's HTTP surface under r
	MountRoutes(r phttp.Router)
	// Close waits for in-flight work the module owns
	Close(ctx context.Context) error
}
