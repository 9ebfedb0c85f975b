package realtime

import (
	"collaborative-notes/internal/config"
	"collaborative-notes/internal/worker"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRealtimeServer starts a real HTTP server with the /ws route. The
// auth middleware is stubbed: the user ID comes from a query parameter.
func setupRealtimeServer(t *testing.T, store NoteUpdater) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig.Environment = "development"

	pool := worker.NewWorkerPool(1, 16)
	t.Cleanup(pool.Shutdown)

	bridge := NewBridge(store, pool, 20*time.Millisecond)
	coordinator := NewCoordinator(NewRegistry(), bridge, allowAll())
	handler := NewHandler(coordinator)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		uid, err := strconv.ParseUint(c.Query("uid"), 10, 64)
		require.NoError(t, err)
		c.Set("user_id", uid)
		handler.Serve(c)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func dialWs(t *testing.T, server *httptest.Server, userID uint64) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + fmt.Sprintf("/ws?uid=%d", userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func wsSend(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Envelope{Event: event, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func wsReceive(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var envelope Envelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope
}

func wsReceiveRoster(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()
	envelope := wsReceive(t, conn)
	require.Equal(t, EventActiveUsers, envelope.Event)
	var names []string
	require.NoError(t, json.Unmarshal(envelope.Data, &names))
	return names
}

func TestWebSocketCollaborationSession(t *testing.T) {
	store := newRecordingStore()
	server := setupRealtimeServer(t, store)

	alice := dialWs(t, server, 1)
	bob := dialWs(t, server, 2)

	// Alice joins note 1 and sees herself
	wsSend(t, alice, EventJoinNote, JoinNotePayload{NoteID: "1", UserName: "Alice"})
	assert.Equal(t, []string{"Alice"}, wsReceiveRoster(t, alice))

	// Bob joins and both get the full roster
	wsSend(t, bob, EventJoinNote, JoinNotePayload{NoteID: "1", UserName: "Bob"})
	assert.Equal(t, []string{"Alice", "Bob"}, wsReceiveRoster(t, alice))
	assert.Equal(t, []string{"Alice", "Bob"}, wsReceiveRoster(t, bob))

	// Alice edits; Bob receives the change, Alice does not
	wsSend(t, alice, EventEditNote, EditNotePayload{NoteID: "1", Content: "hello"})
	envelope := wsReceive(t, bob)
	assert.Equal(t, EventReceiveChanges, envelope.Event)
	var payload ChangesPayload
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "hello", payload.Content)

	// the quiet period elapses and exactly one save lands
	update := waitForUpdate(t, store)
	assert.Equal(t, uint64(1), update.noteID)
	assert.Equal(t, uint64(1), update.userID)
	require.NotNil(t, update.patch.Content)
	assert.Equal(t, "hello", *update.patch.Content)

	// Bob disconnects; Alice gets the shrunken roster
	bob.Close()
	assert.Equal(t, []string{"Alice"}, wsReceiveRoster(t, alice))
}

func TestWebSocketMalformedFrameKeepsConnectionAlive(t *testing.T) {
	store := newRecordingStore()
	server := setupRealtimeServer(t, store)

	conn := dialWs(t, server, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{broken")))

	// the connection survives and still handles valid traffic
	wsSend(t, conn, EventJoinNote, JoinNotePayload{NoteID: "1", UserName: "Alice"})
	assert.Equal(t, []string{"Alice"}, wsReceiveRoster(t, conn))
}
