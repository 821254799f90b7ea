package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
	"simulacred/simulation-portal/simulation-portal-backend/internal/notifications"
)

func startServer(t *testing.T, manager *Manager) *httptest.Server {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	manager.RegisterRoutes(router.Group("/api/v1"))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/admin/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) notifications.WebSocketMessage {
	var msg notifications.WebSocketMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestLiveFeedBroadcastsEvents(t *testing.T) {
	manager := NewManager(nil, zap.NewNop())
	defer manager.Close()
	server := startServer(t, manager)

	first := dial(t, server)
	second := dial(t, server)
	require.Eventually(t, func() bool { return manager.GetConnectionCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, notifications.WSMessageTypeStatus, readMessage(t, first).Type)
	assert.Equal(t, notifications.WSMessageTypeStatus, readMessage(t, second).Type)

	id := uuid.New()
	manager.Publish(context.Background(), events.SimulationCreated(events.ProductVehicle, id, "Carlos", 50000))

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, notifications.WSMessageTypeEvent, msg.Type)
		assert.Equal(t, string(events.TypeSimulationCreated), msg.Data["event"])
		assert.Equal(t, events.ProductVehicle, msg.Data["product"])
		assert.Equal(t, id.String(), msg.Data["simulation_id"])
		assert.Equal(t, 50000.0, msg.Data["amount"])
	}
}

func TestLiveFeedUnregistersClosedClients(t *testing.T) {
	manager := NewManager(nil, zap.NewNop())
	defer manager.Close()
	server := startServer(t, manager)

	conn := dial(t, server)
	require.Eventually(t, func() bool { return manager.GetConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, manager.GetConnectionInfo(), 1)

	conn.Close()
	require.Eventually(t, func() bool { return manager.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLiveFeedRejectsUnknownOrigin(t *testing.T) {
	manager := NewManager([]string{"https://admin.simulacred.com.br"}, zap.NewNop())
	defer manager.Close()
	server := startServer(t, manager)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/admin/live"
	header := map[string][]string{"Origin": {"https://evil.example.com"}}
	_, _, err := websocket.DefaultDialer.Dial(url, header)
	assert.Error(t, err)
	assert.Equal(t, 0, manager.GetConnectionCount())
}

func TestEventMessage(t *testing.T) {
	id := uuid.New()
	msg := EventMessage(events.ProposalStatusChanged(id, "Maria", "pending", "accepted"))

	assert.Equal(t, notifications.WSMessageTypeEvent, msg.Type)
	assert.Equal(t, "admin", msg.Channel)
	assert.Equal(t, string(events.TypeProposalStatusChanged), msg.Data["event"])
	assert.Equal(t, "pending", msg.Data["from_status"])
	assert.Equal(t, "accepted", msg.Data["to_status"])
	assert.NotContains(t, msg.Data, "amount")
}

func TestCloseIsIdempotent(t *testing.T) {
	manager := NewManager(nil, zap.NewNop())
	manager.Close()
	assert.NotPanics(t, manager.Close)
}
