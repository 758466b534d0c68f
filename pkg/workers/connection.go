package workers

import (
	"context"

	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/network"
)

// Disconnecter is the coordinator operation a client disconnect drives.
type Disconnecter interface {
	HandleDisconnect(clientID uint32)
}

// ConnectionEventWorker processes client connect and disconnect events
// from the connection layer and feeds disconnects into the coordinator.
// Routing disconnects through this worker keeps a write failure detected
// during a broadcast from re-entering the coordinator lock: the broadcast
// only closes the connection, and the cleanup arrives here as an event.
type ConnectionEventWorker struct {
	clientEventChan <-chan network.ClientEvent
	game            Disconnecter
}

// NewConnectionEventWorkerOptions contains options for creating a new
// ConnectionEventWorker.
type NewConnectionEventWorkerOptions struct {
	ClientEventChan <-chan network.ClientEvent
	Game            Disconnecter
}

func NewConnectionEventWorker(opts NewConnectionEventWorkerOptions) *ConnectionEventWorker {
	return &ConnectionEventWorker{
		clientEventChan: opts.ClientEventChan,
		game:            opts.Game,
	}
}

func (w *ConnectionEventWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.clientEventChan:
			switch event.Type {
			case network.ClientEventTypeConnect:
				log.Debug("Client %d connected", event.ClientID)
			case network.ClientEventTypeDisconnect:
				w.game.HandleDisconnect(event.ClientID)
			default:
				log.Error("Unknown client event type: %v", event.Type)
			}
		}
	}
}
