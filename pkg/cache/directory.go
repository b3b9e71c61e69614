package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
	"github.com/leadflowhq/leadflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

// OrganizationCache is a read-through decorator over an organization
// repository. Errors from the backing store pass through uncached.
type OrganizationCache struct {
	store
	inner persistence.OrganizationRepository
}

func NewOrganizationCache(inner persistence.OrganizationRepository, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *OrganizationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &OrganizationCache{
		store: store{client: client, ttl: ttl, logger: logger.With("module", "cache")},
		inner: inner,
	}
}

func organizationKey(id string) string {
	return keyPrefix + "org:" + id
}

func (c *OrganizationCache) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	key := organizationKey(id)

	var cached models.Organization
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	org, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.put(ctx, key, org)

	return org, nil
}

func (c *OrganizationCache) Save(ctx context.Context, organization *models.Organization) error {
	if err := c.inner.Save(ctx, organization); err != nil {
		return err
	}

	c.invalidate(ctx, organizationKey(organization.ID))

	return nil
}

// IntegrationCache is a read-through decorator over an integration
// repository.
type IntegrationCache struct {
	store
	inner persistence.IntegrationRepository
}

func NewIntegrationCache(inner persistence.IntegrationRepository, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *IntegrationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &IntegrationCache{
		store: store{client: client, ttl: ttl, logger: logger.With("module", "cache")},
		inner: inner,
	}
}

func integrationKey(organizationID, id string) string {
	return keyPrefix + "integration:" + organizationID + ":" + id
}

func activeIntegrationKey(organizationID string, provider models.ProviderKind) string {
	return keyPrefix + "integration:active:" + organizationID + ":" + string(provider)
}

func (c *IntegrationCache) FindActive(ctx context.Context, organizationID string, provider models.ProviderKind) (*models.Integration, error) {
	key := activeIntegrationKey(organizationID, provider)

	var cached models.Integration
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	integration, err := c.inner.FindActive(ctx, organizationID, provider)
	if err != nil {
		return nil, err
	}

	c.put(ctx, key, integration)

	return integration, nil
}

func (c *IntegrationCache) GetByID(ctx context.Context, organizationID, id string) (*models.Integration, error) {
	key := integrationKey(organizationID, id)

	var cached models.Integration
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	integration, err := c.inner.GetByID(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}

	c.put(ctx, key, integration)

	return integration, nil
}

func (c *IntegrationCache) Save(ctx context.Context, integration *models.Integration) error {
	if err := c.inner.Save(ctx, integration); err != nil {
		return err
	}

	c.invalidate(ctx,
		integrationKey(integration.OrganizationID, integration.ID),
		activeIntegrationKey(integration.OrganizationID, integration.Provider),
	)

	return nil
}
