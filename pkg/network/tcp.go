package network

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/messages"
	"github.com/mathsprint/mathsprint/pkg/queue"
)

// TCPServer accepts TCP connections and spawns a session per connection.
// Connections arriving while a race is running are rejected with an
// error message before the socket is closed.
type TCPServer struct {
	clients   *ClientManager
	registrar Registrar
	msgQueue  queue.Queue
	port      int
}

// NewTCPServerOptions contains options for creating a new TCPServer.
type NewTCPServerOptions struct {
	ClientManager *ClientManager
	Registrar     Registrar
	MessageQueue  queue.Queue
	Port          int
}

// NewTCPServer creates a new TCP server.
func NewTCPServer(opts NewTCPServerOptions) *TCPServer {
	return &TCPServer{
		clients:   opts.ClientManager,
		registrar: opts.Registrar,
		msgQueue:  opts.MessageQueue,
		port:      opts.Port,
	}
}

// Start listens and serves until the context is canceled. A failure to
// bind is returned to the caller; it is the one fatal startup error.
func (s *TCPServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %v", addr, err)
	}
	defer listener.Close()

	log.Info("TCP server listening on %s", addr)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Info("TCP server closed")
				return nil
			}
			log.Error("Failed to accept TCP connection: %v", err)
			continue
		}
		go s.handleConnection(NewTCPConnection(conn))
	}
}

func (s *TCPServer) handleConnection(conn Connection) {
	if !s.registrar.AcceptingPlayers() {
		rejectConnection(conn)
		return
	}
	NewSession(conn, s.clients, s.registrar, s.msgQueue).Run()
}

// rejectConnection tells a late arrival the race has already started and
// hangs up.
func rejectConnection(conn Connection) {
	msg, err := messages.NewMessage(0, messages.MessageTypeServerError, &messages.ServerError{
		Message: "game already in progress",
	})
	if err == nil {
		if werr := conn.WriteMessage(msg); werr != nil {
			log.Debug("Failed to write rejection to %s: %v", conn.RemoteAddr(), werr)
		}
	}
	conn.Close()
}
