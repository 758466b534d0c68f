package game

import (
	"errors"
	"sync"
	"time"

	"github.com/mathsprint/mathsprint/pkg/game/constants"
	"github.com/mathsprint/mathsprint/pkg/game/types"
	"github.com/mathsprint/mathsprint/pkg/log"
	"github.com/mathsprint/mathsprint/pkg/messages"
	"github.com/mathsprint/mathsprint/pkg/questions"
)

var (
	// ErrGameInProgress is returned when a registration arrives while a
	// race is running or frozen on the podium.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrAlreadyRegistered is returned when a client registers twice.
	ErrAlreadyRegistered = errors.New("client is already registered")
)

// ClientSender is the outbound side of the connection layer. Writes to a
// single client are serialized by the connection layer itself; the
// coordinator may call SendMessage while holding its own lock.
type ClientSender interface {
	SendMessage(clientID uint32, msg *messages.Message) error
	CloseClient(clientID uint32)
	ResetClientIDs()
}

// GameManager is the session coordinator. It is the sole owner of all
// cross-player state: the player table, outstanding questions, the phase
// machine, and the countdown, start and reset timers. Every public
// operation and every timer callback runs under one mutex, so no two
// operations ever interleave their reads and writes of shared state.
type GameManager struct {
	sender ClientSender
	oracle *questions.Generator

	finishLine       int
	positionStep     int
	minPlayers       int
	countdownSeconds int
	tickInterval     time.Duration
	startDelay       time.Duration
	resetDelay       time.Duration

	mu                 sync.Mutex
	phase              types.Phase
	players            map[uint32]*types.PlayerState
	outstanding        map[uint32]questions.Question
	countdownStop      chan struct{}
	countdownRemaining int
	startTimer         *time.Timer
	resetTimer         *time.Timer
}

// NewGameManagerOptions contains options for creating a new GameManager.
// Zero-valued tunables fall back to the package constants.
type NewGameManagerOptions struct {
	Sender           ClientSender
	Oracle           *questions.Generator
	FinishLine       int
	PositionStep     int
	MinPlayers       int
	CountdownSeconds int
	TickInterval     time.Duration
	StartDelay       time.Duration
	ResetDelay       time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	gm := &GameManager{
		sender:           opts.Sender,
		oracle:           opts.Oracle,
		finishLine:       opts.FinishLine,
		positionStep:     opts.PositionStep,
		minPlayers:       opts.MinPlayers,
		countdownSeconds: opts.CountdownSeconds,
		tickInterval:     opts.TickInterval,
		startDelay:       opts.StartDelay,
		resetDelay:       opts.ResetDelay,
		phase:            types.PhaseWaiting,
		players:          make(map[uint32]*types.PlayerState),
		outstanding:      make(map[uint32]questions.Question),
	}
	if gm.oracle == nil {
		gm.oracle = questions.NewGenerator()
	}
	if gm.finishLine == 0 {
		gm.finishLine = constants.FinishLine
	}
	if gm.positionStep == 0 {
		gm.positionStep = constants.PositionStep
	}
	if gm.minPlayers == 0 {
		gm.minPlayers = constants.MinPlayers
	}
	if gm.countdownSeconds == 0 {
		gm.countdownSeconds = constants.CountdownSeconds
	}
	if gm.tickInterval == 0 {
		gm.tickInterval = constants.CountdownTickInterval
	}
	if gm.startDelay == 0 {
		gm.startDelay = constants.StartGraceDelay
	}
	if gm.resetDelay == 0 {
		gm.resetDelay = constants.ResetDelay
	}
	return gm
}

// Phase returns the current session phase.
func (gm *GameManager) Phase() types.Phase {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return gm.phase
}

// AcceptingPlayers reports whether new connections may still register.
func (gm *GameManager) AcceptingPlayers() bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	return gm.phase == types.PhaseWaiting || gm.phase == types.PhaseCountdown
}

// Snapshot returns a copy of the current committed state.
func (gm *GameManager) Snapshot() types.Snapshot {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	positions, names := gm.snapshotMapsLocked()
	return types.Snapshot{
		Phase:     gm.phase,
		Positions: positions,
		Names:     names,
	}
}

// RegisterPlayer adds a player to the session, acknowledges it with its
// ID, broadcasts the updated snapshot, and starts the countdown once the
// minimum player count is reached.
func (gm *GameManager) RegisterPlayer(clientID uint32, name, operator string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if gm.phase == types.PhaseRacing || gm.phase == types.PhaseFinished {
		return ErrGameInProgress
	}
	if _, ok := gm.players[clientID]; ok {
		return ErrAlreadyRegistered
	}

	gm.players[clientID] = &types.PlayerState{
		ID:       clientID,
		Name:     name,
		Operator: operator,
	}
	log.Info("Player %d registered: %s (operator %s), %d players total", clientID, name, operator, len(gm.players))

	gm.sendToPlayerLocked(clientID, messages.MessageTypeServerRegisterAck, &messages.ServerRegisterAck{
		PlayerID: clientID,
	})
	gm.broadcastSnapshotLocked()

	if gm.phase == types.PhaseWaiting && len(gm.players) >= gm.minPlayers {
		gm.startCountdownLocked()
	}

	return nil
}

// HandleDisconnect removes all state for a player. A disconnect during
// the countdown cancels it if the player count drops below the minimum;
// a disconnect while racing only removes the player from future
// broadcasts.
func (gm *GameManager) HandleDisconnect(clientID uint32) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	p, ok := gm.players[clientID]
	if !ok {
		return
	}
	delete(gm.players, clientID)
	delete(gm.outstanding, clientID)
	gm.sender.CloseClient(clientID)
	log.Info("Player %d (%s) disconnected, %d players remain", clientID, p.Name, len(gm.players))

	switch gm.phase {
	case types.PhaseCountdown:
		if len(gm.players) < gm.minPlayers {
			gm.stopCountdownLocked()
			gm.phase = types.PhaseWaiting
			log.Info("Not enough players, countdown cancelled")
			gm.broadcastLocked(messages.MessageTypeServerError, &messages.ServerError{
				Message: "countdown cancelled: not enough players",
			})
		}
		gm.broadcastSnapshotLocked()
	case types.PhaseFinished:
		// session is frozen pending reset
	default:
		gm.broadcastSnapshotLocked()
	}
}

// SubmitAnswer validates an answer against the player's outstanding
// question. Answers outside the racing phase, for unknown players, or
// with a stale question ID are silent no-ops.
func (gm *GameManager) SubmitAnswer(clientID uint32, questionID int64, answer int) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if gm.phase != types.PhaseRacing {
		return
	}
	p, ok := gm.players[clientID]
	if !ok {
		return
	}
	q, ok := gm.outstanding[clientID]
	if !ok || q.ID != questionID {
		log.Debug("Player %d answered stale question %d, ignoring", clientID, questionID)
		return
	}

	if answer == q.Answer {
		p.Position += gm.positionStep
		if p.Position > gm.finishLine {
			p.Position = gm.finishLine
		}
		log.Debug("Player %d correct, position %d", clientID, p.Position)
		gm.broadcastSnapshotLocked()
		if p.Position >= gm.finishLine {
			gm.finishLocked(p)
			return
		}
	} else {
		log.Debug("Player %d incorrect: got %d, expected %d", clientID, answer, q.Answer)
		gm.broadcastSnapshotLocked()
	}

	gm.dispatchQuestionLocked(clientID)
}

// Reset clears all player state, question state, and phase, returning the
// session to waiting. Player and question IDs restart from 1.
func (gm *GameManager) Reset() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.resetLocked()
}

// resetAfterWin is the reset timer callback. A reset that raced a manual
// Reset becomes a no-op.
func (gm *GameManager) resetAfterWin() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.phase != types.PhaseFinished {
		return
	}
	gm.resetLocked()
}

func (gm *GameManager) resetLocked() {
	gm.stopCountdownLocked()
	if gm.startTimer != nil {
		gm.startTimer.Stop()
		gm.startTimer = nil
	}
	if gm.resetTimer != nil {
		gm.resetTimer.Stop()
		gm.resetTimer = nil
	}
	for clientID := range gm.players {
		gm.sender.CloseClient(clientID)
	}
	gm.players = make(map[uint32]*types.PlayerState)
	gm.outstanding = make(map[uint32]questions.Question)
	gm.phase = types.PhaseWaiting
	gm.oracle.Reset()
	gm.sender.ResetClientIDs()
	log.Info("Session reset, waiting for players")
}

func (gm *GameManager) startCountdownLocked() {
	gm.phase = types.PhaseCountdown
	gm.countdownRemaining = gm.countdownSeconds
	stop := make(chan struct{})
	gm.countdownStop = stop
	log.Info("Starting %d second countdown", gm.countdownSeconds)
	go gm.runCountdown(stop)
}

func (gm *GameManager) stopCountdownLocked() {
	if gm.countdownStop != nil {
		close(gm.countdownStop)
		gm.countdownStop = nil
	}
	gm.countdownRemaining = 0
}

func (gm *GameManager) runCountdown(stop <-chan struct{}) {
	ticker := time.NewTicker(gm.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !gm.countdownTick() {
				return
			}
		}
	}
}

// countdownTick broadcasts the remaining seconds, or starts the race once
// the countdown has elapsed. A tick that fires after cancellation finds
// the phase changed and becomes a no-op. Returns false when the countdown
// is over.
func (gm *GameManager) countdownTick() bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if gm.phase != types.PhaseCountdown {
		return false
	}
	if gm.countdownRemaining > 0 {
		gm.broadcastLocked(messages.MessageTypeServerCountdownTick, &messages.ServerCountdownTick{
			SecondsRemaining: gm.countdownRemaining,
			PlayerCount:      len(gm.players),
		})
		log.Debug("Countdown: %d", gm.countdownRemaining)
		gm.countdownRemaining--
		return true
	}

	gm.beginRaceLocked()
	return false
}

func (gm *GameManager) beginRaceLocked() {
	gm.stopCountdownLocked()
	gm.phase = types.PhaseRacing
	log.Info("Starting race with %d players", len(gm.players))

	gm.broadcastLocked(messages.MessageTypeServerStart, &messages.ServerStart{
		PlayerCount: len(gm.players),
	})
	gm.broadcastSnapshotLocked()

	gm.startTimer = time.AfterFunc(gm.startDelay, gm.dispatchInitialQuestions)
}

// dispatchInitialQuestions is the start grace timer callback. Each player
// gets an independent question; from here on each player's question
// stream is private to that player.
func (gm *GameManager) dispatchInitialQuestions() {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.phase != types.PhaseRacing {
		return
	}
	for clientID := range gm.players {
		gm.dispatchQuestionLocked(clientID)
	}
}

func (gm *GameManager) dispatchQuestionLocked(clientID uint32) {
	p, ok := gm.players[clientID]
	if !ok {
		return
	}
	q, err := gm.oracle.Generate(p.Operator)
	if err != nil {
		log.Error("Failed to generate question for player %d: %v", clientID, err)
		return
	}
	gm.outstanding[clientID] = q
	gm.sendToPlayerLocked(clientID, messages.MessageTypeServerQuestion, &messages.ServerQuestion{
		QuestionID: q.ID,
		Prompt:     q.Prompt,
	})
}

func (gm *GameManager) finishLocked(winner *types.PlayerState) {
	gm.phase = types.PhaseFinished
	log.Info("Player %d (%s) wins", winner.ID, winner.Name)

	positions, names := gm.snapshotMapsLocked()
	gm.broadcastLocked(messages.MessageTypeServerGameOver, &messages.ServerGameOver{
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		Positions:  positions,
		Names:      names,
	})

	gm.resetTimer = time.AfterFunc(gm.resetDelay, gm.resetAfterWin)
}

func (gm *GameManager) snapshotMapsLocked() (map[uint32]int, map[uint32]string) {
	positions := make(map[uint32]int, len(gm.players))
	names := make(map[uint32]string, len(gm.players))
	for clientID, p := range gm.players {
		positions[clientID] = p.Position
		names[clientID] = p.Name
	}
	return positions, names
}

func (gm *GameManager) broadcastSnapshotLocked() {
	positions, names := gm.snapshotMapsLocked()
	gm.broadcastLocked(messages.MessageTypeServerSnapshot, &messages.ServerSnapshot{
		Positions: positions,
		Names:     names,
	})
}

// broadcastLocked sends a message to every registered player. A failed
// write is isolated to that player's connection: the connection is closed
// and the disconnect flows back through the client event channel, never
// aborting the broadcast to other players.
func (gm *GameManager) broadcastLocked(msgType messages.MessageType, payload interface{}) {
	msg, err := messages.NewMessage(0, msgType, payload)
	if err != nil {
		log.Error("Failed to build %s broadcast: %v", msgType, err)
		return
	}
	for clientID := range gm.players {
		if err := gm.sender.SendMessage(clientID, msg); err != nil {
			log.Error("Failed to send %s to player %d: %v", msgType, clientID, err)
			gm.sender.CloseClient(clientID)
		}
	}
}

func (gm *GameManager) sendToPlayerLocked(clientID uint32, msgType messages.MessageType, payload interface{}) {
	msg, err := messages.NewMessage(0, msgType, payload)
	if err != nil {
		log.Error("Failed to build %s message: %v", msgType, err)
		return
	}
	if err := gm.sender.SendMessage(clientID, msg); err != nil {
		log.Error("Failed to send %s to player %d: %v", msgType, clientID, err)
		gm.sender.CloseClient(clientID)
	}
}
