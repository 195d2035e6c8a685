package cluster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/Ftotnem/GO-TEAMS/shared/registry"
)

type staticIdentity string

func (s staticIdentity) GetServiceID() string   { return string(s) }
func (s staticIdentity) GetServiceType() string { return "team-service" }

type fakeLister struct {
	services map[string]registry.ServiceInfo
	err      error
}

func (f *fakeLister) GetActiveServices(ctx context.Context, serviceType string) (map[string]registry.ServiceInfo, error) {
	return f.services, f.err
}

func listerOf(ids ...string) *fakeLister {
	services := make(map[string]registry.ServiceInfo, len(ids))
	for _, id := range ids {
		services[id] = registry.ServiceInfo{ServiceID: id, ServiceType: "team-service"}
	}
	return &fakeLister{services: services}
}

func TestSingleInstanceOwnsEverything(t *testing.T) {
	sam := NewServiceAssignmentManager(listerOf(), staticIdentity("a"), 0)
	for i := 0; i < 20; i++ {
		ok, err := sam.IsResponsible(fmt.Sprintf("team-%d", i))
		if err != nil || !ok {
			t.Fatalf("expected ownership, got %v %v", ok, err)
		}
	}
}

func TestEveryEntityHasExactlyOneOwner(t *testing.T) {
	lister := listerOf("a", "b", "c")
	managers := []*ServiceAssignmentManager{
		NewServiceAssignmentManager(lister, staticIdentity("a"), 0),
		NewServiceAssignmentManager(lister, staticIdentity("b"), 0),
		NewServiceAssignmentManager(lister, staticIdentity("c"), 0),
	}
	for _, m := range managers {
		m.Refresh(context.Background())
		if !slices.Equal(m.Members(), []string{"a", "b", "c"}) {
			t.Fatalf("members = %v", m.Members())
		}
	}

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("team-%d", i)
		owners := 0
		for _, m := range managers {
			ok, err := m.IsResponsible(id)
			if err != nil {
				t.Fatalf("is responsible: %v", err)
			}
			if ok {
				owners++
			}
		}
		if owners != 1 {
			t.Fatalf("%s has %d owners", id, owners)
		}
	}
}

func TestRefreshKeepsRingOnRegistryFailure(t *testing.T) {
	lister := listerOf("a", "b")
	sam := NewServiceAssignmentManager(lister, staticIdentity("a"), 0)
	sam.Refresh(context.Background())

	lister.err = errors.New("redis down")
	sam.Refresh(context.Background())
	if !slices.Equal(sam.Members(), []string{"a", "b"}) {
		t.Fatalf("members = %v", sam.Members())
	}

	lister.err = nil
	lister.services = nil
	sam.Refresh(context.Background())
	if !slices.Equal(sam.Members(), []string{"a", "b"}) {
		t.Fatalf("empty answer should keep the ring, got %v", sam.Members())
	}
}
