package realtime

import "sync"

type member struct {
	connID string
	name   string
}

// Registry is the per-note set of live participants. It is the only shared
// mutable state of the realtime layer and is always constructed explicitly,
// never held in a package-level variable.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string][]member
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string][]member)}
}

// Join adds the connection to the note's room, creating the room if absent.
// Re-joining keeps the insertion position and updates the display name.
// Display names are user supplied labels; no uniqueness is enforced.
func (r *Registry) Join(noteID, connID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[noteID]
	for i, m := range members {
		if m.connID == connID {
			members[i].name = name
			return
		}
	}
	r.rooms[noteID] = append(members, member{connID: connID, name: name})
}

// Leave removes the connection from every room it belongs to. Rooms left
// empty are deleted. Returns the note IDs of rooms that still have members,
// so presence can be re-broadcast to them.
func (r *Registry) Leave(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []string
	for noteID, members := range r.rooms {
		for i, m := range members {
			if m.connID != connID {
				continue
			}
			members = append(members[:i], members[i+1:]...)
			if len(members) == 0 {
				delete(r.rooms, noteID)
			} else {
				r.rooms[noteID] = members
				affected = append(affected, noteID)
			}
			break
		}
	}
	return affected
}

// Names returns the display names in insertion order; this slice is the
// presence payload, duplicates included.
func (r *Registry) Names(noteID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[noteID]
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.name)
	}
	return names
}

// MemberIDs returns the connection IDs currently in the room.
func (r *Registry) MemberIDs(noteID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[noteID]
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.connID)
	}
	return ids
}

// IsMember reports whether the connection has joined the room.
func (r *Registry) IsMember(noteID, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.rooms[noteID] {
		if m.connID == connID {
			return true
		}
	}
	return false
}

// Has reports whether the room exists at all.
func (r *Registry) Has(noteID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[noteID]
	return ok
}
