package health

import "context"

// HealthPinger is the probe contract the event store and AI provider expose.
// HealthPing returns nil when the backing dependency answered in time.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
