package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/claudepro-directory/contentsync/internal/syncer"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	server := NewServer(&Config{
		Addr:   "127.0.0.1:0", // random available port
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	// Give server time to start
	time.Sleep(100 * time.Millisecond)
	return server
}

func dialTestClient(t *testing.T, server *Server) (*websocket.Conn, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	// Read welcome message
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}
	return conn, ctx
}

func TestServerStartStop(t *testing.T) {
	server := startTestServer(t)

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketConnection(t *testing.T) {
	server := startTestServer(t)
	dialTestClient(t, server)

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}
}

func TestMessageBroadcast(t *testing.T) {
	server := startTestServer(t)
	conn, ctx := dialTestClient(t, server)

	testData := ItemUpdateData{
		Category: "agents",
		Slug:     "code-reviewer",
		Action:   "inserted",
	}
	dataJSON, _ := json.Marshal(testData)
	server.Broadcast(Message{
		Type:      MessageTypeItemUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast message: %v", err)
	}

	var received Message
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if received.Type != MessageTypeItemUpdate {
		t.Errorf("Expected message type %s, got %s", MessageTypeItemUpdate, received.Type)
	}

	var receivedData ItemUpdateData
	if err := json.Unmarshal(received.Data, &receivedData); err != nil {
		t.Fatalf("Failed to unmarshal item data: %v", err)
	}
	if receivedData.Slug != testData.Slug || receivedData.Action != "inserted" {
		t.Errorf("Item data mismatch: %+v", receivedData)
	}
}

func TestSinkItemSynced(t *testing.T) {
	server := startTestServer(t)
	conn, ctx := dialTestClient(t, server)

	sink := NewSink(server, nil)
	sink.ItemSynced("mcp", "github-server", "updated")

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read item update: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeItemUpdate {
		t.Errorf("Expected message type %s, got %s", MessageTypeItemUpdate, msg.Type)
	}

	var item ItemUpdateData
	if err := json.Unmarshal(msg.Data, &item); err != nil {
		t.Fatalf("Failed to unmarshal item data: %v", err)
	}
	if item.Category != "mcp" || item.Slug != "github-server" || item.Action != "updated" {
		t.Errorf("Item data mismatch: %+v", item)
	}
}

func TestSinkSyncCompleted(t *testing.T) {
	server := startTestServer(t)
	conn, ctx := dialTestClient(t, server)

	sink := NewSink(server, nil)
	sink.SyncCompleted(syncer.Snapshot{Scanned: 10, Inserted: 3, Unchanged: 7}, 2*time.Second)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read sync complete: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeSyncComplete {
		t.Errorf("Expected message type %s, got %s", MessageTypeSyncComplete, msg.Type)
	}

	var syncData SyncCompleteData
	if err := json.Unmarshal(msg.Data, &syncData); err != nil {
		t.Fatalf("Failed to unmarshal sync data: %v", err)
	}
	if syncData.Scanned != 10 || syncData.Inserted != 3 || syncData.Unchanged != 7 {
		t.Errorf("Sync data mismatch: %+v", syncData)
	}
}
