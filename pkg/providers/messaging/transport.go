package messaging

import (
	"context"
	"log/slog"

	"github.com/leadflowhq/leadflow/pkg/models"
)

// Message is one outbound delivery handed to a transport.
type Message struct {
	Integration *models.Integration
	Channel     models.ProviderKind
	Recipient   string
	Body        string
	Subject     string
	Locale      string
}

// Transport delivers messages through a provider API. Implementations read
// the tenant's credentials off the integration.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// LogTransport writes deliveries to the log instead of a provider API. It is
// the default transport when no real provider credentials are wired, and the
// one tests run against.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger.With("module", "messaging_transport")}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	integrationID := ""
	if msg.Integration != nil {
		integrationID = msg.Integration.ID
	}

	t.logger.InfoContext(ctx, "Delivering message",
		"channel", string(msg.Channel),
		"recipient", msg.Recipient,
		"locale", msg.Locale,
		"integration_id", integrationID,
	)

	return nil
}
