// Package server runs the HTTP and gRPC listeners of a service under one
// start/stop lifecycle with signal-driven graceful shutdown.
package server

import "context"

// Lifecycle defines the lifecycle interface for servers.
type Lifecycle interface {
	// Start starts the server. It returns once the listener is bound.
	Start(ctx context.Context) error
	// Stop stops the server gracefully.
	Stop(ctx context.Context) error
}

// Runnable represents a component that can be started and stopped.
type Runnable interface {
	Lifecycle
	// Name returns the server name for identification.
	Name() string
	// Err reports a failure of the serve loop after Start.
	Err() <-chan error
}
