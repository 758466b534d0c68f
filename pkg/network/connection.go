package network

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mathsprint/mathsprint/pkg/messages"
)

// ErrConnectionClosed is returned when the peer has gone away.
type ErrConnectionClosed struct{}

func (e *ErrConnectionClosed) Error() string {
	return "connection closed"
}

// Connection is a message-oriented transport to a single client. Writes
// on a Connection are serialized internally, so the broadcast path and a
// per-player dispatch never interleave bytes on the wire.
type Connection interface {
	ReadMessage() (*messages.Message, error)
	WriteMessage(msg *messages.Message) error
	Close() error
	RemoteAddr() string
}

// tcpConnection frames messages as single zstd-compressed JSON writes.
type tcpConnection struct {
	conn    net.Conn
	writeMu sync.Mutex
}

// NewTCPConnection wraps a net.Conn as a Connection.
func NewTCPConnection(conn net.Conn) Connection {
	return &tcpConnection{conn: conn}
}

func (c *tcpConnection) ReadMessage() (*messages.Message, error) {
	buf := make([]byte, messages.MessageBufferSize)
	n, err := c.conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return nil, &ErrConnectionClosed{}
		}
		return nil, err
	}
	return messages.DeserializeMessage(buf[:n])
}

func (c *tcpConnection) WriteMessage(msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.conn.Write(b)
	return err
}

func (c *tcpConnection) Close() error {
	return c.conn.Close()
}

func (c *tcpConnection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// wsConnection frames messages as binary WebSocket messages.
type wsConnection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewWSConnection wraps a websocket.Conn as a Connection.
func NewWSConnection(conn *websocket.Conn) Connection {
	return &wsConnection{conn: conn}
}

func (c *wsConnection) ReadMessage() (*messages.Message, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) ||
			errors.Is(err, net.ErrClosed) {
			return nil, &ErrConnectionClosed{}
		}
		return nil, err
	}
	return messages.DeserializeMessage(data)
}

func (c *wsConnection) WriteMessage(msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, b)
}

func (c *wsConnection) Close() error {
	return c.conn.Close()
}

func (c *wsConnection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
