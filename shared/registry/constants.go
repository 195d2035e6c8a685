// shared/registry/constants.go
package registry

// RedisRegistryHashPrefix prefixes the hash holding all instances of one service type,
// e.g. "services:team-service".
const RedisRegistryHashPrefix = "services:"

func hashKey(serviceType string) string {
	return RedisRegistryHashPrefix + serviceType
}
