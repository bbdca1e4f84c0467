package rooms

import (
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/ephemeral-chat/events"
)

// Tracker publishes the live member count of a room after every membership
// mutation. It holds no state of its own: the count it publishes is exactly
// the registry cardinality returned by the mutation that triggered it.
type Tracker struct {
	bus    mono.EventBus
	logger types.Logger
}

// NewTracker creates a presence tracker. The event bus is wired in later,
// when the framework hands it to the owning module.
func NewTracker(logger types.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// SetBus attaches the event bus used for publication.
func (t *Tracker) SetBus(bus mono.EventBus) {
	t.bus = bus
}

// Publish emits the presence count for a room. excludeID names a connection
// to skip during fan-out (a leaver does not receive the count update it
// caused). Publication is best-effort.
func (t *Tracker) Publish(room string, count int, excludeID string) {
	if t.bus == nil {
		return
	}
	ev := events.PresenceUpdatedEvent{
		Room:      room,
		Count:     count,
		ExcludeID: excludeID,
	}
	if err := events.PresenceUpdatedV1.Publish(t.bus, ev, nil); err != nil {
		t.logger.Warn("failed to publish presence update", "room", room, "error", err)
	}
}
