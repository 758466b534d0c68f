package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathsprint/mathsprint/pkg/messages"
)

type fakeConn struct {
	written []*messages.Message
	closed  int
}

func (f *fakeConn) ReadMessage() (*messages.Message, error) {
	return nil, &ErrConnectionClosed{}
}

func (f *fakeConn) WriteMessage(msg *messages.Message) error {
	f.written = append(f.written, msg)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed++
	return nil
}

func (f *fakeConn) RemoteAddr() string {
	return "fake"
}

func TestClientManagerAssignsSequentialIDs(t *testing.T) {
	cm := NewClientManager()

	first := cm.AddClient(&fakeConn{})
	second := cm.AddClient(&fakeConn{})
	third := cm.AddClient(&fakeConn{})

	assert.Equal(t, uint32(1), first)
	assert.Equal(t, uint32(2), second)
	assert.Equal(t, uint32(3), third)
	assert.Equal(t, 3, cm.Count())
	assert.True(t, cm.Exists(second))
}

func TestClientManagerResetRestartsIDsAtOne(t *testing.T) {
	cm := NewClientManager()

	cm.AddClient(&fakeConn{})
	cm.AddClient(&fakeConn{})
	cm.RemoveClient(1)
	cm.RemoveClient(2)

	cm.ResetClientIDs()

	assert.Equal(t, uint32(1), cm.AddClient(&fakeConn{}))
}

func TestClientManagerRemoveClosesConnection(t *testing.T) {
	cm := NewClientManager()
	conn := &fakeConn{}
	id := cm.AddClient(conn)

	cm.RemoveClient(id)

	assert.Equal(t, 1, conn.closed)
	assert.False(t, cm.Exists(id))

	// removing again is a no-op
	cm.RemoveClient(id)
	assert.Equal(t, 1, conn.closed)
}

func TestClientManagerSendMessage(t *testing.T) {
	cm := NewClientManager()
	conn := &fakeConn{}
	id := cm.AddClient(conn)

	msg, err := messages.NewMessage(id, messages.MessageTypeServerStart, &messages.ServerStart{PlayerCount: 2})
	require.NoError(t, err)
	require.NoError(t, cm.SendMessage(id, msg))
	assert.Len(t, conn.written, 1)

	err = cm.SendMessage(99, msg)
	assert.Error(t, err, "sending to an unknown client fails")
}
