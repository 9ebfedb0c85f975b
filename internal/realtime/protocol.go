package realtime

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Event names mirror the wire vocabulary the web client speaks. Client to
// server events propose changes; server to client events apply them.
const (
	EventJoinNote         = "join-note"
	EventEditNote         = "edit-note"
	EventEditTitle        = "edit-title"
	EventEditPublicStatus = "edit-public-status"

	EventActiveUsers         = "active-users"
	EventReceiveChanges      = "receive-changes"
	EventReceiveTitle        = "receive-title"
	EventReceivePublicStatus = "receive-public-status"
	EventSaveError           = "save-error"
)

// Envelope is the frame every message travels in. Messages are independent;
// there is no request/response pairing and no message ID.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinNotePayload struct {
	NoteID   string `json:"noteId"`
	UserName string `json:"userName"`
}

type EditNotePayload struct {
	NoteID  string `json:"noteId"`
	Content string `json:"content"`
}

type EditTitlePayload struct {
	NoteID string `json:"noteId"`
	Title  string `json:"title"`
}

type EditPublicStatusPayload struct {
	NoteID string `json:"noteId"`
	Public bool   `json:"public"`
}

type ChangesPayload struct {
	Content string `json:"content"`
}

type TitlePayload struct {
	Title string `json:"title"`
}

type PublicStatusPayload struct {
	Public bool `json:"public"`
}

type SaveErrorPayload struct {
	NoteID  string `json:"noteId"`
	Message string `json:"message"`
}

var errBadNoteID = errors.New("note id is not a valid identifier")

// ParseNoteID validates the wire note identifier. Anything that is not a
// positive integer is rejected before it reaches the registry.
func ParseNoteID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errBadNoteID
	}
	return id, nil
}

func encodeMessage(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
