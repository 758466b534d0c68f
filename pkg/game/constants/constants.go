package constants

import "time"

const (
	// FinishLine is the track length. The first player whose position
	// reaches it wins the race.
	FinishLine = 100
	// PositionStep is how far a player advances per correct answer.
	PositionStep = 10
	// MinPlayers is the number of registered players required to start
	// the countdown.
	MinPlayers = 2
	// CountdownSeconds is the total countdown duration before a race.
	CountdownSeconds = 10
	// CountdownTickInterval is the period between countdown broadcasts.
	CountdownTickInterval = 1 * time.Second
	// StartGraceDelay is how long after the start notice the first
	// questions are dispatched, so clients can render the track first.
	StartGraceDelay = 2 * time.Second
	// ResetDelay is how long a finished session stays frozen so clients
	// can render the podium before state clears.
	ResetDelay = 5 * time.Second
	// MaxNameLength caps the self-reported display name.
	MaxNameLength = 32
)
