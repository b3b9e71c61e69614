// Package protocol defines the contracts between the engine and the
// provider handlers that execute action nodes.
package protocol

import (
	"context"

	"github.com/leadflowhq/leadflow/pkg/models"
)

// Handler executes one provider's action nodes. Implementations mutate the
// execution state's variables, may enrich the persisted lead, and perform
// the provider's external side effect.
//
// Error semantics matter to the graph walker: a returned error routes the
// run onto the node's failure path (or fails the run). Business-level
// failures a workflow should branch on — an undeliverable message, a
// rejected webhook — are reported in the returned result instead.
type Handler interface {
	Kind() models.ProviderKind
	Execute(ctx context.Context, node *models.Node, state *models.ExecutionState, integration *models.Integration) (any, error)
}
