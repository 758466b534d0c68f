package network

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mathsprint/mathsprint/pkg/game/constants"
	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/messages"
	"github.com/mathsprint/mathsprint/pkg/questions"
	"github.com/mathsprint/mathsprint/pkg/queue"
)

// Registrar is the coordinator surface the connection layer drives
// directly: synchronous registration during the handshake and the phase
// gate for the acceptor.
type Registrar interface {
	RegisterPlayer(clientID uint32, name, operator string) error
	AcceptingPlayers() bool
}

// Session is the per-connection boundary: it performs the registration
// handshake, then forwards inbound answers to the message queue. It never
// touches another player's state; the coordinator is the source of truth
// for everything it forwards.
type Session struct {
	conn      Connection
	connID    string
	clients   *ClientManager
	registrar Registrar
	msgQueue  queue.Queue
}

// NewSession creates a session for an accepted connection.
func NewSession(conn Connection, clients *ClientManager, registrar Registrar, msgQueue queue.Queue) *Session {
	return &Session{
		conn:      conn,
		connID:    uuid.NewString(),
		clients:   clients,
		registrar: registrar,
		msgQueue:  msgQueue,
	}
}

// Run performs the handshake and then pumps inbound messages until the
// connection dies. Protocol errors are fatal for this connection only.
func (s *Session) Run() {
	log.Debug("Connection %s from %s", s.connID, s.conn.RemoteAddr())

	clientID, ok := s.handshake()
	if !ok {
		s.conn.Close()
		return
	}

	defer s.clients.RemoveClient(clientID)
	s.readLoop(clientID)
}

// handshake reads exactly one registration message. Any other first
// message, or a malformed payload, closes the connection.
func (s *Session) handshake() (uint32, bool) {
	first, err := s.conn.ReadMessage()
	if err != nil {
		if _, closed := err.(*ErrConnectionClosed); !closed {
			log.Debug("Connection %s failed before registering: %v", s.connID, err)
		}
		return 0, false
	}
	if first.Type != messages.MessageTypeClientRegister {
		s.sendError("first message must be register")
		return 0, false
	}

	register := &messages.ClientRegister{}
	if err := messages.DecodePayload(first, register); err != nil {
		s.sendError("malformed register payload")
		return 0, false
	}

	name := strings.TrimSpace(register.Name)
	if name == "" || len(name) > constants.MaxNameLength {
		s.sendError("name must be between 1 and 32 characters")
		return 0, false
	}
	if !questions.ValidOperator(register.Operator) {
		s.sendError("operator must be one of + - * /")
		return 0, false
	}

	clientID := s.clients.AddClient(s.conn)
	if err := s.registrar.RegisterPlayer(clientID, name, register.Operator); err != nil {
		s.sendError(err.Error())
		s.clients.RemoveClient(clientID)
		return 0, false
	}

	return clientID, true
}

func (s *Session) readLoop(clientID uint32) {
	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			if _, closed := err.(*ErrConnectionClosed); !closed {
				log.Debug("Read error on connection %s (player %d): %v", s.connID, clientID, err)
			}
			return
		}

		switch msg.Type {
		case messages.MessageTypeClientAnswer:
			msg.ClientID = clientID
			if err := s.msgQueue.Enqueue(msg); err != nil {
				log.Error("Failed to enqueue answer from player %d: %v", clientID, err)
			}
		case messages.MessageTypePing:
			pong := &messages.Message{Type: messages.MessageTypePing}
			if err := s.conn.WriteMessage(pong); err != nil {
				log.Debug("Failed to answer ping from player %d: %v", clientID, err)
				return
			}
		default:
			s.sendError("unexpected message type")
			return
		}
	}
}

func (s *Session) sendError(reason string) {
	msg, err := messages.NewMessage(0, messages.MessageTypeServerError, &messages.ServerError{
		Message: reason,
	})
	if err != nil {
		log.Error("Failed to build error message: %v", err)
		return
	}
	if err := s.conn.WriteMessage(msg); err != nil {
		log.Debug("Failed to write error to connection %s: %v", s.connID, err)
	}
}
