package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Ftotnem/GO-TEAMS/shared/config"
)

func TestIsStale(t *testing.T) {
	now := time.Now()
	fresh := ServiceInfo{LastSeen: now.Add(-2 * time.Second).UnixMilli()}
	old := ServiceInfo{LastSeen: now.Add(-20 * time.Second).UnixMilli()}

	if isStale(fresh, now, 15*time.Second) {
		t.Fatal("fresh entry reported stale")
	}
	if !isStale(old, now, 15*time.Second) {
		t.Fatal("old entry reported live")
	}
}

func TestDecodeServicesSeparatesCorruptEntries(t *testing.T) {
	good, _ := json.Marshal(ServiceInfo{ServiceID: "a", ServiceType: "team-service", LastSeen: 1})
	services, corrupt := decodeServices("team-service", map[string]string{
		"a": string(good),
		"b": "{not json",
	})
	if len(services) != 1 || services["a"].ServiceID != "a" {
		t.Fatalf("services = %+v", services)
	}
	if len(corrupt) != 1 || corrupt[0] != "b" {
		t.Fatalf("corrupt = %v", corrupt)
	}
}

func TestRegistrarHeartbeatUsesMilliseconds(t *testing.T) {
	sr := NewServiceRegistrar(nil, "team-service", &config.CommonConfig{ServiceIP: "10.0.0.1", ServicePort: 8080})
	now := time.Now()
	info := sr.serviceInfo(now)

	if info.LastSeen != now.UnixMilli() {
		t.Fatalf("LastSeen = %d, want %d", info.LastSeen, now.UnixMilli())
	}
	if isStale(info, now.Add(time.Second), 15*time.Second) {
		t.Fatal("a heartbeat one second old must be live")
	}
	if info.ServiceType != "team-service" || info.IP != "10.0.0.1" || info.Port != 8080 {
		t.Fatalf("unexpected info %+v", info)
	}
	if sr.GetServiceID() == "" || sr.GetServiceType() != "team-service" {
		t.Fatal("registrar identity not set")
	}
}
