package workers

import (
	"context"
	"errors"

	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/messages"
	"github.com/mathsprint/mathsprint/pkg/queue"
)

// AnswerHandler is the coordinator operation an inbound answer drives.
type AnswerHandler interface {
	SubmitAnswer(clientID uint32, questionID int64, answer int)
}

// AnswerWorker drains the client message queue and feeds answers into the
// coordinator. Session read loops enqueue and return to their sockets
// immediately; this worker is the only goroutine that turns inbound
// messages into coordinator calls.
type AnswerWorker struct {
	msgQueue queue.Queue
	game     AnswerHandler
}

// NewAnswerWorkerOptions contains options for creating a new AnswerWorker.
type NewAnswerWorkerOptions struct {
	MessageQueue queue.Queue
	Game         AnswerHandler
}

func NewAnswerWorker(opts NewAnswerWorkerOptions) *AnswerWorker {
	return &AnswerWorker{
		msgQueue: opts.MessageQueue,
		game:     opts.Game,
	}
}

func (w *AnswerWorker) Start(ctx context.Context) {
	for {
		item, err := w.msgQueue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Failed to dequeue message: %v", err)
			return
		}

		msg, ok := item.(*messages.Message)
		if !ok {
			log.Error("Unexpected item in message queue: %T", item)
			continue
		}
		if msg.Type != messages.MessageTypeClientAnswer {
			log.Warn("Ignoring queued message of type %s from client %d", msg.Type, msg.ClientID)
			continue
		}

		answer := &messages.ClientAnswer{}
		if err := messages.DecodePayload(msg, answer); err != nil {
			log.Error("Malformed answer from client %d: %v", msg.ClientID, err)
			continue
		}
		w.game.SubmitAnswer(msg.ClientID, answer.QuestionID, answer.Answer)
	}
}
