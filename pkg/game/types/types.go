package types

// Phase is the session-wide stage of the game.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseCountdown
	PhaseRacing
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseCountdown:
		return "countdown"
	case PhaseRacing:
		return "racing"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// PlayerState is the per-player state owned by the coordinator.
// Position is in [0, finish line] and only ever moves forward.
type PlayerState struct {
	ID       uint32
	Name     string
	Operator string
	Position int
}

// Snapshot is the complete current mapping of player ID to position and
// name. Snapshots handed out by the coordinator are copies and safe to
// read without holding any lock.
type Snapshot struct {
	Phase     Phase
	Positions map[uint32]int
	Names     map[uint32]string
}

// PlayerCount returns the number of players in the snapshot.
func (s Snapshot) PlayerCount() int {
	return len(s.Positions)
}
