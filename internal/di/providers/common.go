package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// connectTimeout bounds the initial document store connection.
	connectTimeout = 15 * time.Second
)

// Version is reported by the OpenAPI document. Set at build time with
// -ldflags "-X .../providers.Version=...".
var Version = "dev"
