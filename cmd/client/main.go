package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/mathsprint/mathsprint/pkg/messages"
	"github.com/mathsprint/mathsprint/pkg/network"
)

// outstanding tracks the question the server most recently assigned to
// this player, so stdin answers can be correlated to it.
type outstanding struct {
	mu sync.Mutex
	id int64
	ok bool
}

func (o *outstanding) set(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.id = id
	o.ok = true
}

func (o *outstanding) get() (int64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.id, o.ok
}

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "server address")
	name := flag.String("name", "", "display name")
	operator := flag.String("operator", "+", "operator to race with: + - * /")
	flag.Parse()

	if *name == "" {
		fmt.Println("A display name is required (-name)")
		os.Exit(1)
	}

	raw, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Println("Error connecting to server:", err)
		os.Exit(1)
	}
	conn := network.NewTCPConnection(raw)
	defer conn.Close()

	register, err := messages.NewMessage(0, messages.MessageTypeClientRegister, &messages.ClientRegister{
		Name:     *name,
		Operator: *operator,
	})
	if err != nil {
		fmt.Println("Error building register message:", err)
		os.Exit(1)
	}
	if err := conn.WriteMessage(register); err != nil {
		fmt.Println("Error registering:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	question := &outstanding{}
	var playerID uint32

	go func() {
		defer cancel()
		for {
			msg, err := conn.ReadMessage()
			if err != nil {
				fmt.Println("Disconnected from server.")
				return
			}
			switch msg.Type {
			case messages.MessageTypeServerRegisterAck:
				ack := &messages.ServerRegisterAck{}
				if err := messages.DecodePayload(msg, ack); err != nil {
					continue
				}
				playerID = ack.PlayerID
				fmt.Printf("Registered as player %d. Waiting for the race to start...\n", playerID)
			case messages.MessageTypeServerCountdownTick:
				tick := &messages.ServerCountdownTick{}
				if err := messages.DecodePayload(msg, tick); err != nil {
					continue
				}
				fmt.Printf("Race starts in %d... (%d players)\n", tick.SecondsRemaining, tick.PlayerCount)
			case messages.MessageTypeServerStart:
				start := &messages.ServerStart{}
				if err := messages.DecodePayload(msg, start); err != nil {
					continue
				}
				fmt.Printf("Go! Racing against %d players.\n", start.PlayerCount-1)
			case messages.MessageTypeServerQuestion:
				q := &messages.ServerQuestion{}
				if err := messages.DecodePayload(msg, q); err != nil {
					continue
				}
				question.set(q.QuestionID)
				fmt.Printf("Question: %s = ?\n", q.Prompt)
			case messages.MessageTypeServerSnapshot:
				snapshot := &messages.ServerSnapshot{}
				if err := messages.DecodePayload(msg, snapshot); err != nil {
					continue
				}
				printTrack(snapshot.Positions, snapshot.Names)
			case messages.MessageTypeServerGameOver:
				gameOver := &messages.ServerGameOver{}
				if err := messages.DecodePayload(msg, gameOver); err != nil {
					continue
				}
				if gameOver.WinnerID == playerID {
					fmt.Println("You win!")
				} else {
					fmt.Printf("%s wins!\n", gameOver.WinnerName)
				}
				printTrack(gameOver.Positions, gameOver.Names)
			case messages.MessageTypeServerError:
				serverError := &messages.ServerError{}
				if err := messages.DecodePayload(msg, serverError); err != nil {
					continue
				}
				fmt.Println("Server:", serverError.Message)
			case messages.MessageTypePing:
				// keep-alive, nothing to do
			}
		}
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" {
				cancel()
				return
			}
			value, err := strconv.Atoi(line)
			if err != nil {
				fmt.Println("Answers must be integers.")
				continue
			}
			questionID, ok := question.get()
			if !ok {
				fmt.Println("No question to answer yet.")
				continue
			}
			answer, err := messages.NewMessage(0, messages.MessageTypeClientAnswer, &messages.ClientAnswer{
				QuestionID: questionID,
				Answer:     value,
			})
			if err != nil {
				fmt.Println("Error building answer:", err)
				continue
			}
			if err := conn.WriteMessage(answer); err != nil {
				fmt.Println("Error sending answer:", err)
				cancel()
				return
			}
		}
	}()

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stopSignal:
		fmt.Println("Received stop signal, exiting.")
	case <-ctx.Done():
	}
}

func printTrack(positions map[uint32]int, names map[uint32]string) {
	for id, pos := range positions {
		fmt.Printf("  %s: %d\n", names[id], pos)
	}
}
