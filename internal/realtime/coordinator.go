package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"
)

// AccessChecker decides whether a user may join a note's room. Backed by
// the note store: owners always may, others only when the note is public.
type AccessChecker interface {
	CanJoin(ctx context.Context, noteID uint64, userID uint64) error
}

// Relay is the fan-out boundary. The coordinator never merges or arbitrates
// content; it hands a verbatim frame to the relay. A merge-capable strategy
// can replace lastWriterRelay without touching the session plumbing.
type Relay interface {
	// ToRoom delivers to every member of the room, sender included.
	ToRoom(noteID string, msg []byte)
	// ToOthers delivers to every member except the sender.
	ToOthers(noteID string, senderID string, msg []byte)
	// ToConn delivers to a single connection.
	ToConn(connID string, msg []byte)
}

// connTable maps connection IDs to live clients.
type connTable struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func newConnTable() *connTable {
	return &connTable{clients: make(map[string]*Client)}
}

func (t *connTable) add(c *Client) {
	t.mu.Lock()
	t.clients[c.id] = c
	t.mu.Unlock()
}

func (t *connTable) remove(connID string) {
	t.mu.Lock()
	delete(t.clients, connID)
	t.mu.Unlock()
}

func (t *connTable) get(connID string) *Client {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clients[connID]
}

// lastWriterRelay forwards the most recent frame as-is. Recipients apply
// frames in arrival order; the latest write wins.
type lastWriterRelay struct {
	registry *Registry
	conns    *connTable
}

func (r *lastWriterRelay) ToRoom(noteID string, msg []byte) {
	for _, connID := range r.registry.MemberIDs(noteID) {
		r.ToConn(connID, msg)
	}
}

func (r *lastWriterRelay) ToOthers(noteID string, senderID string, msg []byte) {
	for _, connID := range r.registry.MemberIDs(noteID) {
		if connID == senderID {
			continue
		}
		r.ToConn(connID, msg)
	}
}

func (r *lastWriterRelay) ToConn(connID string, msg []byte) {
	if c := r.conns.get(connID); c != nil {
		c.enqueue(msg)
	}
}

// Coordinator mediates connection lifecycle and message routing. It holds
// no document content; the note store stays the single source of truth.
type Coordinator struct {
	registry *Registry
	conns    *connTable
	relay    Relay
	bridge   *Bridge
	access   AccessChecker
}

func NewCoordinator(registry *Registry, bridge *Bridge, access AccessChecker) *Coordinator {
	conns := newConnTable()
	co := &Coordinator{
		registry: registry,
		conns:    conns,
		relay:    &lastWriterRelay{registry: registry, conns: conns},
		bridge:   bridge,
		access:   access,
	}
	bridge.onCommitError(co.sendSaveError)
	return co
}

func (co *Coordinator) register(c *Client) {
	co.conns.add(c)
	log.Printf("Connection %s opened (user %d)", c.id, c.userID)
}

// unregister is the only cancellation path: membership is cleaned up,
// affected rooms get a fresh roster, and pending saves are flushed so the
// last edit before a disconnect still reaches the note store.
func (co *Coordinator) unregister(c *Client) {
	co.conns.remove(c.id)
	c.close()

	for _, noteID := range co.registry.Leave(c.id) {
		co.broadcastPresence(noteID)
	}

	co.bridge.Flush(c.id)
	log.Printf("Connection %s closed", c.id)
}

// dispatch routes one inbound frame. Malformed frames are logged and
// dropped; a bad message must never take the handler down.
func (co *Coordinator) dispatch(c *Client, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("Dropping malformed frame from %s: %v", c.id, err)
		return
	}

	switch envelope.Event {
	case EventJoinNote:
		co.handleJoin(c, envelope.Data)
	case EventEditNote:
		co.handleEditNote(c, envelope.Data)
	case EventEditTitle:
		co.handleEditTitle(c, envelope.Data)
	case EventEditPublicStatus:
		co.handleEditPublicStatus(c, envelope.Data)
	default:
		log.Printf("Dropping unknown event %q from %s", envelope.Event, c.id)
	}
}

func (co *Coordinator) handleJoin(c *Client, data json.RawMessage) {
	var payload JoinNotePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("Dropping malformed join-note from %s: %v", c.id, err)
		return
	}

	noteID, err := ParseNoteID(payload.NoteID)
	if err != nil {
		log.Printf("Dropping join-note from %s: %v", c.id, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := co.access.CanJoin(ctx, noteID, c.userID); err != nil {
		log.Printf("Join to note %d denied for user %d: %v", noteID, c.userID, err)
		return
	}

	room := roomKey(noteID)
	co.registry.Join(room, c.id, payload.UserName)
	co.broadcastPresence(room)
}

// roomKey normalizes the wire identifier so "01" and "1" land in the same
// room.
func roomKey(noteID uint64) string {
	return strconv.FormatUint(noteID, 10)
}

func (co *Coordinator) handleEditNote(c *Client, data json.RawMessage) {
	var payload EditNotePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("Dropping malformed edit-note from %s: %v", c.id, err)
		return
	}

	noteID, err := ParseNoteID(payload.NoteID)
	if err != nil {
		log.Printf("Dropping edit-note from %s: %v", c.id, err)
		return
	}

	room := roomKey(noteID)
	if !co.registry.IsMember(room, c.id) {
		log.Printf("Dropping edit-note from %s: not in note %d's room", c.id, noteID)
		return
	}

	msg, err := encodeMessage(EventReceiveChanges, ChangesPayload{Content: payload.Content})
	if err != nil {
		log.Printf("Encoding receive-changes failed: %v", err)
		return
	}
	co.relay.ToOthers(room, c.id, msg)

	co.bridge.EditContent(c.id, noteID, c.userID, payload.Content)
}

func (co *Coordinator) handleEditTitle(c *Client, data json.RawMessage) {
	var payload EditTitlePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("Dropping malformed edit-title from %s: %v", c.id, err)
		return
	}

	noteID, err := ParseNoteID(payload.NoteID)
	if err != nil {
		log.Printf("Dropping edit-title from %s: %v", c.id, err)
		return
	}

	room := roomKey(noteID)
	if !co.registry.IsMember(room, c.id) {
		log.Printf("Dropping edit-title from %s: not in note %d's room", c.id, noteID)
		return
	}

	msg, err := encodeMessage(EventReceiveTitle, TitlePayload{Title: payload.Title})
	if err != nil {
		log.Printf("Encoding receive-title failed: %v", err)
		return
	}
	co.relay.ToOthers(room, c.id, msg)

	co.bridge.EditTitle(c.id, noteID, c.userID, payload.Title)
}

func (co *Coordinator) handleEditPublicStatus(c *Client, data json.RawMessage) {
	var payload EditPublicStatusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("Dropping malformed edit-public-status from %s: %v", c.id, err)
		return
	}

	noteID, err := ParseNoteID(payload.NoteID)
	if err != nil {
		log.Printf("Dropping edit-public-status from %s: %v", c.id, err)
		return
	}

	room := roomKey(noteID)
	if !co.registry.IsMember(room, c.id) {
		log.Printf("Dropping edit-public-status from %s: not in note %d's room", c.id, noteID)
		return
	}

	msg, err := encodeMessage(EventReceivePublicStatus, PublicStatusPayload{Public: payload.Public})
	if err != nil {
		log.Printf("Encoding receive-public-status failed: %v", err)
		return
	}
	co.relay.ToOthers(room, c.id, msg)

	// Visibility changes are explicit user actions; they skip the debounce
	co.bridge.CommitVisibility(c.id, noteID, c.userID, payload.Public)
}

// broadcastPresence pushes the full roster to everyone in the room, sender
// included. Full-state pushes self-heal any previously dropped frame.
func (co *Coordinator) broadcastPresence(noteID string) {
	msg, err := encodeMessage(EventActiveUsers, co.registry.Names(noteID))
	if err != nil {
		log.Printf("Encoding active-users failed: %v", err)
		return
	}
	co.relay.ToRoom(noteID, msg)
}

// sendSaveError tells only the initiating connection that its save failed.
// Other participants never see another client's persistence errors.
func (co *Coordinator) sendSaveError(connID string, noteID uint64, saveErr error) {
	msg, err := encodeMessage(EventSaveError, SaveErrorPayload{
		NoteID:  strconv.FormatUint(noteID, 10),
		Message: saveErr.Error(),
	})
	if err != nil {
		log.Printf("Encoding save-error failed: %v", err)
		return
	}
	co.relay.ToConn(connID, msg)
}
