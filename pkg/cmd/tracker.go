package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/leadflowhq/leadflow/pkg/analytics"
	"github.com/leadflowhq/leadflow/pkg/channels/gochannel"
	"github.com/leadflowhq/leadflow/pkg/channels/kafka"
)

// NewTracker builds the BI tracking publisher: Kafka in production, the
// in-memory GoChannel otherwise.
func NewTracker(provider string, logger *slog.Logger) (*analytics.Tracker, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		publisher, _, err := kafka.CreateChannel(wmLogger, "leadflow")
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka tracking channel: %w", err)
		}

		return analytics.NewTracker(publisher, logger), nil
	default:
		publisher, _, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory tracking channel: %w", err)
		}

		return analytics.NewTracker(publisher, logger), nil
	}
}
