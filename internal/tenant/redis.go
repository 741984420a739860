package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/pkg/logger"
)

const (
	configPrefix = "tenant:config:"
	routePrefix  = "tenant:route:"
)

// RedisProvider reads tenant configuration and routing records written by the
// admin surface.
type RedisProvider struct {
	client redis.UniversalClient
	logger *logger.Logger
}

// NewRedisProvider creates a provider over an existing Redis connection.
func NewRedisProvider(client redis.UniversalClient, log *logger.Logger) *RedisProvider {
	return &RedisProvider{client: client, logger: log}
}

// Load returns a tenant's configuration, or nil if none is stored.
func (p *RedisProvider) Load(ctx context.Context, tenantID string) (*Config, error) {
	data, err := p.client.Get(ctx, configPrefix+tenantID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tenant: load %s: %w", tenantID, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("tenant: unmarshal %s: %w", tenantID, err)
	}
	if cfg.TenantID == "" {
		cfg.TenantID = tenantID
	}
	return &cfg, nil
}

// Resolve maps a platform recipient account ID to a tenant ID.
func (p *RedisProvider) Resolve(ctx context.Context, recipientID string) (string, error) {
	tenantID, err := p.client.Get(ctx, routePrefix+recipientID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownTenant
	}
	if err != nil {
		return "", fmt.Errorf("tenant: resolve %s: %w", recipientID, err)
	}
	return tenantID, nil
}

// ListTenants returns all tenant IDs with stored configuration.
func (p *RedisProvider) ListTenants(ctx context.Context) ([]string, error) {
	var ids []string
	iter := p.client.Scan(ctx, 0, configPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), configPrefix))
	}
	if err := iter.Err(); err != nil {
		p.logger.Error("tenant scan failed", zap.Error(err))
		return ids, err
	}
	return ids, nil
}

// StaticProvider serves a fixed set of tenants; used in tests and for
// single-tenant deployments configured from the environment.
type StaticProvider struct {
	Configs map[string]*Config
	Routes  map[string]string
}

// Load returns the stored config, or nil.
func (p *StaticProvider) Load(ctx context.Context, tenantID string) (*Config, error) {
	return p.Configs[tenantID], nil
}

// Resolve maps a recipient ID through the static route table.
func (p *StaticProvider) Resolve(ctx context.Context, recipientID string) (string, error) {
	if id, ok := p.Routes[recipientID]; ok {
		return id, nil
	}
	return "", ErrUnknownTenant
}

// ListTenants returns all configured tenant IDs.
func (p *StaticProvider) ListTenants(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(p.Configs))
	for id := range p.Configs {
		ids = append(ids, id)
	}
	return ids, nil
}
