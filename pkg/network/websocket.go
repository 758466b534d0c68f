package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/queue"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSServer accepts WebSocket connections and runs the same session
// handshake and read loop as the TCP server.
type WSServer struct {
	clients   *ClientManager
	registrar Registrar
	msgQueue  queue.Queue
	port      int
}

// NewWSServerOptions contains options for creating a new WSServer.
type NewWSServerOptions struct {
	ClientManager *ClientManager
	Registrar     Registrar
	MessageQueue  queue.Queue
	Port          int
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		clients:   opts.ClientManager,
		registrar: opts.Registrar,
		msgQueue:  opts.MessageQueue,
		port:      opts.Port,
	}
}

// Start serves WebSocket upgrades until the context is canceled. A
// failure to bind is returned to the caller.
func (s *WSServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		go s.handleConnection(NewWSConnection(conn))
	})

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Info("WebSocket server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return nil
		}
		return fmt.Errorf("websocket server error: %v", err)
	}
	return nil
}

func (s *WSServer) handleConnection(conn Connection) {
	if !s.registrar.AcceptingPlayers() {
		rejectConnection(conn)
		return
	}
	NewSession(conn, s.clients, s.registrar, s.msgQueue).Run()
}
