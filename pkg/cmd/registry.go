package cmd

import (
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/analytics"
	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
	"github.com/leadflowhq/leadflow/pkg/providers/abtest"
	"github.com/leadflowhq/leadflow/pkg/providers/aiscore"
	"github.com/leadflowhq/leadflow/pkg/providers/crm"
	"github.com/leadflowhq/leadflow/pkg/providers/messaging"
	"github.com/leadflowhq/leadflow/pkg/providers/predictive"
	"github.com/leadflowhq/leadflow/pkg/providers/roiguard"
	"github.com/leadflowhq/leadflow/pkg/providers/webhookout"
	"github.com/leadflowhq/leadflow/pkg/registry"
)

// NewRegistry registers the closed set of provider handlers.
func NewRegistry(p persistence.Persistence, tracker *analytics.Tracker, logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	transport := messaging.NewLogTransport(logger)
	reg.Register(messaging.NewHandler(models.ProviderWhatsApp, transport, tracker, logger))
	reg.Register(messaging.NewHandler(models.ProviderEmail, transport, tracker, logger))
	reg.Register(messaging.NewHandler(models.ProviderSMS, transport, tracker, logger))

	reg.Register(crm.NewHandler(crm.NewHTTPSyncer(), p.Integrations(), tracker, logger))
	reg.Register(webhookout.NewHandler(logger))

	reg.Register(aiscore.NewHandler(aiscore.NewRuleAnalyzer(), p.Leads(), logger))
	reg.Register(predictive.NewHandler(p.Expertise(), p.Leads(), tracker, logger))
	reg.Register(roiguard.NewHandler(p.CampaignStats(), tracker, logger))
	reg.Register(abtest.NewHandler(tracker, logger))

	return reg
}
