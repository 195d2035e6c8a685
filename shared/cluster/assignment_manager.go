// shared/cluster/assignment_manager.go
package cluster

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/registry"
	"github.com/stathat/consistent"
)

// ServiceLister returns the live instances of a service type.
type ServiceLister interface {
	GetActiveServices(ctx context.Context, serviceType string) (map[string]registry.ServiceInfo, error)
}

// Identity names the local instance on the ring.
type Identity interface {
	GetServiceID() string
	GetServiceType() string
}

// ServiceAssignmentManager decides whether this instance owns an entity (a team id, for the reconciler)
// by consistent hashing over the live instances of its service type.
type ServiceAssignmentManager struct {
	lister         ServiceLister
	self           Identity
	updateInterval time.Duration

	chMux          sync.RWMutex
	consistentHash *consistent.Consistent

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServiceAssignmentManager creates a manager whose ring initially holds only this instance.
func NewServiceAssignmentManager(lister ServiceLister, self Identity, updateInterval time.Duration) *ServiceAssignmentManager {
	ctx, cancel := context.WithCancel(context.Background())

	ring := consistent.New()
	ring.Add(self.GetServiceID())

	log.Printf("INFO: ServiceAssignmentManager initialized for service '%s' (ID: %s) with update interval: %v",
		self.GetServiceType(), self.GetServiceID(), updateInterval)
	return &ServiceAssignmentManager{
		lister:         lister,
		self:           self,
		updateInterval: updateInterval,
		consistentHash: ring,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start refreshes the ring periodically until Stop is called. Run it in a goroutine.
func (sam *ServiceAssignmentManager) Start() {
	ticker := time.NewTicker(sam.updateInterval)
	defer ticker.Stop()

	sam.Refresh(sam.ctx)
	for {
		select {
		case <-sam.ctx.Done():
			log.Println("INFO: ServiceAssignmentManager: ring updater shutting down.")
			return
		case <-ticker.C:
			sam.Refresh(sam.ctx)
		}
	}
}

func (sam *ServiceAssignmentManager) Stop() {
	sam.cancel()
}

// Refresh rebuilds the ring when the set of live instances changed.
// An empty registry answer keeps the current ring so a registry blip does not orphan every entity.
func (sam *ServiceAssignmentManager) Refresh(ctx context.Context) {
	serviceType := sam.self.GetServiceType()
	activeServices, err := sam.lister.GetActiveServices(ctx, serviceType)
	if err != nil {
		log.Printf("ERROR: ServiceAssignmentManager: Failed to get active services for type '%s': %v", serviceType, err)
		return
	}
	if len(activeServices) == 0 {
		log.Printf("WARN: ServiceAssignmentManager: no live '%s' instances reported, keeping current ring.", serviceType)
		return
	}

	members := make([]string, 0, len(activeServices))
	for id := range activeServices {
		members = append(members, id)
	}
	slices.Sort(members)

	sam.chMux.Lock()
	defer sam.chMux.Unlock()

	current := sam.consistentHash.Members()
	slices.Sort(current)
	if slices.Equal(members, current) {
		return
	}

	ring := consistent.New()
	ring.Set(members)
	sam.consistentHash = ring
	log.Printf("INFO: ServiceAssignmentManager: ring updated for '%s'. Active members: %v", serviceType, members)
}

// IsResponsible reports whether this instance owns entityID.
func (sam *ServiceAssignmentManager) IsResponsible(entityID string) (bool, error) {
	sam.chMux.RLock()
	defer sam.chMux.RUnlock()

	owner, err := sam.consistentHash.Get(entityID)
	if err != nil {
		return false, fmt.Errorf("failed to get responsible service for entity '%s' (type %s): %w", entityID, sam.self.GetServiceType(), err)
	}
	return owner == sam.self.GetServiceID(), nil
}

// Members returns the instance IDs currently on the ring.
func (sam *ServiceAssignmentManager) Members() []string {
	sam.chMux.RLock()
	defer sam.chMux.RUnlock()
	members := sam.consistentHash.Members()
	slices.Sort(members)
	return members
}
