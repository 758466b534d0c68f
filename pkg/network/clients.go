package network

import (
	"fmt"
	"sync"

	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/messages"
)

const (
	// ClientEventChannelSize represents the size of the client event channel
	ClientEventChannelSize = 1024
)

// Client represents a connected client.
type Client struct {
	ID   uint32
	Conn Connection
}

// ClientEventType represents the type of a client event.
type ClientEventType int

const (
	ClientEventTypeConnect ClientEventType = iota
	ClientEventTypeDisconnect
)

// ClientEvent represents an event that happened to a client.
type ClientEvent struct {
	ClientID uint32
	Type     ClientEventType
}

// ClientManager manages connected clients. IDs are assigned sequentially
// from 1 and double as player IDs; ResetClientIDs starts a new epoch.
type ClientManager struct {
	mu      sync.RWMutex
	clients map[uint32]*Client
	nextID  uint32
	events  chan ClientEvent
}

// NewClientManager creates a new ClientManager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uint32]*Client),
		nextID:  1,
		events:  make(chan ClientEvent, ClientEventChannelSize),
	}
}

// GetClientEventChan returns a one-way channel for receiving client events.
func (cm *ClientManager) GetClientEventChan() <-chan ClientEvent {
	return cm.events
}

// AddClient adds a new client to the manager and returns its ID.
func (cm *ClientManager) AddClient(conn Connection) uint32 {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	clientID := cm.nextID
	cm.nextID++
	cm.clients[clientID] = &Client{
		ID:   clientID,
		Conn: conn,
	}
	cm.emit(ClientEvent{ClientID: clientID, Type: ClientEventTypeConnect})
	return clientID
}

// RemoveClient closes a client's connection and removes it from the
// manager. Removing an unknown client is a no-op.
func (cm *ClientManager) RemoveClient(clientID uint32) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	client, ok := cm.clients[clientID]
	if !ok {
		return
	}
	client.Conn.Close()
	delete(cm.clients, clientID)
	cm.emit(ClientEvent{ClientID: clientID, Type: ClientEventTypeDisconnect})
}

// emit must not block: the emitting goroutine may hold the coordinator
// lock that the event consumer needs.
func (cm *ClientManager) emit(event ClientEvent) {
	select {
	case cm.events <- event:
	default:
		log.Error("Client event channel full, dropping event %d for client %d", event.Type, event.ClientID)
	}
}

// SendMessage writes a message to a single client's connection.
func (cm *ClientManager) SendMessage(clientID uint32, msg *messages.Message) error {
	cm.mu.RLock()
	client, ok := cm.clients[clientID]
	cm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("client %d is not connected", clientID)
	}
	return client.Conn.WriteMessage(msg)
}

// CloseClient closes a client's connection. Implements game.ClientSender.
func (cm *ClientManager) CloseClient(clientID uint32) {
	cm.RemoveClient(clientID)
}

// ResetClientIDs restarts ID assignment from 1. Callers must have closed
// all clients first.
func (cm *ClientManager) ResetClientIDs() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if len(cm.clients) > 0 {
		log.Warn("Resetting client IDs with %d clients still connected", len(cm.clients))
	}
	cm.nextID = 1
}

// Exists reports whether a client is connected.
func (cm *ClientManager) Exists(clientID uint32) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	_, ok := cm.clients[clientID]
	return ok
}

// Count returns the number of connected clients.
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}
