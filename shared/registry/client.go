// shared/registry/client.go
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RegistryClient reads the registry. Registration itself is the ServiceRegistrar's job.
type RegistryClient struct {
	redisClient    redis.UniversalClient
	serviceTimeout time.Duration
}

func NewRegistryClient(redisClient redis.UniversalClient, serviceTimeout time.Duration) *RegistryClient {
	return &RegistryClient{
		redisClient:    redisClient,
		serviceTimeout: serviceTimeout,
	}
}

// GetActiveServices returns live instances of serviceType keyed by instance ID.
// Instances whose last heartbeat is older than the service timeout are left out.
func (rc *RegistryClient) GetActiveServices(ctx context.Context, serviceType string) (map[string]ServiceInfo, error) {
	results, err := rc.redisClient.HGetAll(ctx, hashKey(serviceType)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get all services of type %s from Redis: %w", serviceType, err)
	}

	services, _ := decodeServices(serviceType, results)
	now := time.Now()
	for id, info := range services {
		if isStale(info, now, rc.serviceTimeout) {
			delete(services, id)
		}
	}
	return services, nil
}
