package questions

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Operators supported by the generator.
const (
	OperatorAdd      = "+"
	OperatorSubtract = "-"
	OperatorMultiply = "*"
	OperatorDivide   = "/"
)

const (
	// operandMax is the largest operand drawn for a question (1..operandMax).
	operandMax = 20
)

// ErrUnknownOperator is returned when a question is requested for an
// operator outside the supported set.
var ErrUnknownOperator = errors.New("unknown operator")

// Question is a generated prompt with its expected answer.
type Question struct {
	ID     int64
	Prompt string
	Answer int
}

// ValidOperator reports whether op is one of the supported operators.
func ValidOperator(op string) bool {
	switch op {
	case OperatorAdd, OperatorSubtract, OperatorMultiply, OperatorDivide:
		return true
	}
	return false
}

// Generator produces arithmetic questions with strictly increasing IDs.
// IDs are shared across all operators and players; Reset starts a new
// ID epoch. A Generator is safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	nextID int64
}

// NewGenerator creates a Generator seeded from the current time.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator creates a Generator with a fixed seed.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// Generate returns a new question for the given operator.
func (g *Generator) Generate(op string) (Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	a := g.rnd.Intn(operandMax) + 1
	b := g.rnd.Intn(operandMax) + 1
	return g.makeQuestion(op, a, b)
}

// makeQuestion builds a question from the two drawn operands. Subtraction
// prompts are built as (a+b) - b so the answer is never negative, and
// division prompts as (a*b) ÷ b so the answer is always the exact integer
// a and the divisor is never zero.
func (g *Generator) makeQuestion(op string, a, b int) (Question, error) {
	var prompt string
	var answer int

	switch op {
	case OperatorAdd:
		prompt = fmt.Sprintf("%d + %d", a, b)
		answer = a + b
	case OperatorSubtract:
		prompt = fmt.Sprintf("%d - %d", a+b, b)
		answer = a
	case OperatorMultiply:
		prompt = fmt.Sprintf("%d × %d", a, b)
		answer = a * b
	case OperatorDivide:
		prompt = fmt.Sprintf("%d ÷ %d", a*b, b)
		answer = a
	default:
		return Question{}, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}

	g.nextID++
	return Question{
		ID:     g.nextID,
		Prompt: prompt,
		Answer: answer,
	}, nil
}

// Reset starts a new ID epoch. Question IDs restart from 1.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID = 0
}
