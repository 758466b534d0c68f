package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeQuestion(t *testing.T) {
	tests := []struct {
		name       string
		op         string
		a          int
		b          int
		wantPrompt string
		wantAnswer int
		wantErr    bool
	}{
		{
			name:       "addition",
			op:         OperatorAdd,
			a:          3,
			b:          9,
			wantPrompt: "3 + 9",
			wantAnswer: 12,
		},
		{
			name:       "subtraction is non-negative by construction",
			op:         OperatorSubtract,
			a:          2,
			b:          19,
			wantPrompt: "21 - 19",
			wantAnswer: 2,
		},
		{
			name:       "multiplication",
			op:         OperatorMultiply,
			a:          6,
			b:          7,
			wantPrompt: "6 × 7",
			wantAnswer: 42,
		},
		{
			name:       "division is exact by construction",
			op:         OperatorDivide,
			a:          4,
			b:          7,
			wantPrompt: "28 ÷ 7",
			wantAnswer: 4,
		},
		{
			name:    "unknown operator",
			op:      "%",
			a:       1,
			b:       1,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewSeededGenerator(1)
			q, err := g.makeQuestion(tt.op, tt.a, tt.b)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownOperator)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantPrompt, q.Prompt)
			assert.Equal(t, tt.wantAnswer, q.Answer)
		})
	}
}

func TestGenerateAnswersAreNeverNegative(t *testing.T) {
	g := NewSeededGenerator(42)
	for _, op := range []string{OperatorAdd, OperatorSubtract, OperatorMultiply, OperatorDivide} {
		for i := 0; i < 200; i++ {
			q, err := g.Generate(op)
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, q.Answer, 0, "operator %s produced %q", op, q.Prompt)
		}
	}
}

func TestGenerateIDsStrictlyIncrease(t *testing.T) {
	g := NewSeededGenerator(7)
	var last int64
	for i := 0; i < 50; i++ {
		q, err := g.Generate(OperatorAdd)
		assert.NoError(t, err)
		assert.Greater(t, q.ID, last)
		last = q.ID
	}
}

func TestResetStartsNewIDEpoch(t *testing.T) {
	g := NewSeededGenerator(7)
	for i := 0; i < 10; i++ {
		_, err := g.Generate(OperatorMultiply)
		assert.NoError(t, err)
	}
	g.Reset()
	q, err := g.Generate(OperatorMultiply)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), q.ID)
}

func TestValidOperator(t *testing.T) {
	assert.True(t, ValidOperator("+"))
	assert.True(t, ValidOperator("-"))
	assert.True(t, ValidOperator("*"))
	assert.True(t, ValidOperator("/"))
	assert.False(t, ValidOperator(""))
	assert.False(t, ValidOperator("÷"))
	assert.False(t, ValidOperator("add"))
}
