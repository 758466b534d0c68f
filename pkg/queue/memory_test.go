package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryQueueOrdering(t *testing.T) {
	q := NewInMemoryQueue(4)
	for i := 0; i < 4; i++ {
		assert.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 4, q.Size())

	for i := 0; i < 4; i++ {
		item, err := q.Dequeue(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, i, item)
	}
	assert.Equal(t, 0, q.Size())
}

func TestInMemoryQueueFull(t *testing.T) {
	q := NewInMemoryQueue(1)
	assert.NoError(t, q.Enqueue("a"))
	assert.ErrorIs(t, q.Enqueue("b"), ErrQueueFull)
}

func TestInMemoryQueueDequeueCanceled(t *testing.T) {
	q := NewInMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInMemoryQueueReadAllMessages(t *testing.T) {
	q := NewInMemoryQueue(8)
	assert.NoError(t, q.Enqueue("a"))
	assert.NoError(t, q.Enqueue("b"))

	all := q.ReadAllMessages()
	assert.Equal(t, []interface{}{"a", "b"}, all)
	assert.Empty(t, q.ReadAllMessages())
}
