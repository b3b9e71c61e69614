// Package registry holds the closed set of provider handlers the engine can
// dispatch action nodes to.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/protocol"
)

// Registry maps provider kinds to their handlers. The set is closed: only
// handlers registered at startup can run, so a typo in a workflow definition
// fails at save or dispatch, never silently.
type Registry struct {
	logger   *slog.Logger
	handlers map[models.ProviderKind]protocol.Handler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		handlers: make(map[models.ProviderKind]protocol.Handler),
	}
}

// Register adds a handler under its own kind.
func (r *Registry) Register(handler protocol.Handler) {
	r.handlers[handler.Kind()] = handler
}

// Resolve returns the handler for a provider, or an error for untrusted or
// unknown providers.
func (r *Registry) Resolve(provider models.ProviderKind) (protocol.Handler, error) {
	handler, ok := r.handlers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %q not registered", provider)
	}

	return handler, nil
}

// Known reports whether a provider has a registered handler.
func (r *Registry) Known(provider models.ProviderKind) bool {
	_, ok := r.handlers[provider]

	return ok
}

// Kinds lists the registered provider kinds.
func (r *Registry) Kinds() []models.ProviderKind {
	kinds := make([]models.ProviderKind, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}

	return kinds
}
