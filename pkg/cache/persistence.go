package cache

import (
	"log/slog"
	"time"

	"github.com/leadflowhq/leadflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

// cachedPersistence decorates the tenant-directory repositories and passes
// everything else through to the backing store.
type cachedPersistence struct {
	persistence.Persistence

	organizations *OrganizationCache
	integrations  *IntegrationCache
}

// WrapPersistence returns a persistence handle whose organization and
// integration lookups go through Redis.
func WrapPersistence(p persistence.Persistence, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) persistence.Persistence {
	return &cachedPersistence{
		Persistence:   p,
		organizations: NewOrganizationCache(p.Organizations(), client, ttl, logger),
		integrations:  NewIntegrationCache(p.Integrations(), client, ttl, logger),
	}
}

func (c *cachedPersistence) Organizations() persistence.OrganizationRepository {
	return c.organizations
}

func (c *cachedPersistence) Integrations() persistence.IntegrationRepository {
	return c.integrations
}
