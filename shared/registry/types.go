// shared/registry/types.go
package registry

import (
	"encoding/json"
	"log"
	"time"
)

// ServiceInfo is one instance's entry in the registry hash.
type ServiceInfo struct {
	ServiceID   string `json:"serviceId"`
	ServiceType string `json:"serviceType"`
	IP          string `json:"ip"`
	Port        int    `json:"port"`
	// LastSeen is the last heartbeat in Unix milliseconds.
	LastSeen int64             `json:"last_seen"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// isStale reports whether info missed its heartbeat window at now.
func isStale(info ServiceInfo, now time.Time, ttl time.Duration) bool {
	return now.Sub(time.UnixMilli(info.LastSeen)) > ttl
}

// decodeServices parses raw hash values. Malformed entries are returned separately so callers can drop them.
func decodeServices(serviceType string, raw map[string]string) (map[string]ServiceInfo, []string) {
	services := make(map[string]ServiceInfo, len(raw))
	var corrupt []string
	for instanceID, infoJSON := range raw {
		var info ServiceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			log.Printf("WARN: Registry: Failed to unmarshal ServiceInfo for ID %s (type %s): %v", instanceID, serviceType, err)
			corrupt = append(corrupt, instanceID)
			continue
		}
		services[instanceID] = info
	}
	return services, corrupt
}
