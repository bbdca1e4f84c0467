package rooms

import (
	"sync"
	"time"
)

// roomState is the mutable state of one room. Each room carries its own lock
// so operations on different rooms never contend; the registry's outer lock
// guards only the room map itself.
type roomState struct {
	mu        sync.Mutex
	members   map[string]struct{}
	occupied  bool // at least one member has ever joined
	dissolved bool
	lastStamp time.Time
}

// Registry is the process-wide authoritative set of valid room codes and,
// per room, the set of active member display names. A room exists here iff
// it was explicitly created and has not yet emptied after being occupied.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
	now   func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*roomState),
		now:   time.Now,
	}
}

// Create registers code as a valid room with an empty member set. Idempotent:
// re-creating an existing code keeps its members.
func (r *Registry) Create(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[code]; ok {
		return
	}
	r.rooms[code] = &roomState{members: make(map[string]struct{})}
}

// Exists reports whether code is currently registered.
func (r *Registry) Exists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[code]
	return ok
}

func (r *Registry) get(code string) (*roomState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.rooms[code]
	return st, ok
}

// Join adds displayName to the room's member set and returns the new count.
// Idempotent per name: re-adding a present name does not change the count.
func (r *Registry) Join(code, displayName string) (int, error) {
	st, ok := r.get(code)
	if !ok {
		return 0, ErrRoomNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// The room may have dissolved between the map lookup and taking its lock.
	if st.dissolved {
		return 0, ErrRoomNotFound
	}
	st.members[displayName] = struct{}{}
	st.occupied = true
	return len(st.members), nil
}

// Leave removes displayName from the room's member set. Removing an absent
// name is a no-op, not an error. When the member set transitions from
// non-empty to empty the room is dissolved: removed from the registry, with
// dissolved reported true. Rooms that were created but never occupied stay
// registered.
func (r *Registry) Leave(code, displayName string) (count int, dissolved bool, err error) {
	st, ok := r.get(code)
	if !ok {
		return 0, false, ErrRoomNotFound
	}

	st.mu.Lock()
	delete(st.members, displayName)
	count = len(st.members)
	if count == 0 && st.occupied && !st.dissolved {
		st.dissolved = true
		dissolved = true
	}
	st.mu.Unlock()

	if dissolved {
		r.mu.Lock()
		// Only remove the state we dissolved; the code may have been
		// re-created in the meantime.
		if cur, ok := r.rooms[code]; ok && cur == st {
			delete(r.rooms, code)
		}
		r.mu.Unlock()
	}
	return count, dissolved, nil
}

// Count returns the member count of a registered room.
func (r *Registry) Count(code string) (int, bool) {
	st, ok := r.get(code)
	if !ok {
		return 0, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.dissolved {
		return 0, false
	}
	return len(st.members), true
}

// IsMember reports whether displayName is currently in the room.
func (r *Registry) IsMember(code, displayName string) bool {
	st, ok := r.get(code)
	if !ok {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.dissolved {
		return false
	}
	_, ok = st.members[displayName]
	return ok
}

// Members returns the display names currently in the room.
func (r *Registry) Members(code string) []string {
	st, ok := r.get(code)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	names := make([]string, 0, len(st.members))
	for name := range st.members {
		names = append(names, name)
	}
	return names
}

// Stamp returns a timestamp for an outgoing event in the room. Stamps are
// monotonically non-decreasing per room in issue order, even if the wall
// clock steps backwards. Unknown rooms get the plain wall clock.
func (r *Registry) Stamp(code string) time.Time {
	st, ok := r.get(code)
	if !ok {
		return r.now()
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.stampLocked(r.now)
}

// StampMessage validates that displayName is a current member of the room and
// returns the timestamp for the outgoing user message.
func (r *Registry) StampMessage(code, displayName string) (time.Time, error) {
	st, ok := r.get(code)
	if !ok {
		return time.Time{}, ErrRoomNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.dissolved {
		return time.Time{}, ErrRoomNotFound
	}
	if _, ok := st.members[displayName]; !ok {
		return time.Time{}, ErrNotInRoom
	}
	return st.stampLocked(r.now), nil
}

func (st *roomState) stampLocked(now func() time.Time) time.Time {
	ts := now()
	if ts.Before(st.lastStamp) {
		ts = st.lastStamp
	}
	st.lastStamp = ts
	return ts
}
