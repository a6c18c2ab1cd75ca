package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// stubDep stands in for the event store and AI provider checkers.
type stubDep struct {
	name    string
	healthy atomic.Int32
}

func (s *stubDep) Name() string                               { return s.name }
func (s *stubDep) IsHealthy() bool                            { return s.healthy.Load() == 1 }
func (s *stubDep) Start(ctx context.Context, _ time.Duration) {}

func TestServiceHealthChecker_FollowsDependencies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &stubDep{name: "eventstore"}
	provider := &stubDep{name: "llm-provider"}
	store.healthy.Store(1)
	provider.healthy.Store(1)

	svc := NewServiceHealthChecker(zerolog.Nop(), store, provider)
	go svc.Start(ctx, 10*time.Millisecond)

	settle(t, svc.IsHealthy)

	// One dependency down takes the service down.
	provider.healthy.Store(0)
	settle(t, func() bool { return !svc.IsHealthy() })

	// Service recovers once the provider does.
	provider.healthy.Store(1)
	settle(t, svc.IsHealthy)
}

func TestServiceHealthChecker_StartsUnhealthy(t *testing.T) {
	store := &stubDep{name: "eventstore"}
	svc := NewServiceHealthChecker(zerolog.Nop(), store)
	if svc.IsHealthy() {
		t.Fatal("service must report unhealthy before the first evaluation")
	}
}

func settle(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
