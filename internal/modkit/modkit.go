package modkit

import "context"

// Module is the common surface for batch modules: a name, a port bundle and
// the resources it owns. keep this tiny so modules stay decoupled
type Module interface {
	// Ports returns a module specific port set for cross wiring
	Ports() any
	// Name returns the module name
	Name() string
	// Close releases whatever the module opened (stores, files)
	Close(ctx context.Context) error
}

// Builder constructs a Module from shared deps
type Builder func(context.Context, Deps) (Module, error)
