package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTrigger(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Trigger
		wantErr  bool
	}{
		{name: "greater symbol", input: ">", expected: TriggerAbove},
		{name: "less symbol", input: "<", expected: TriggerBelow},
		{name: "equal symbol", input: "=", expected: TriggerEqual},
		{name: "double equal", input: "==", expected: TriggerEqual},
		{name: "word alias uppercase", input: "GT", expected: TriggerAbove},
		{name: "word alias mixed case", input: "Less-Than", expected: TriggerBelow},
		{name: "surrounding whitespace", input: "  eq  ", expected: TriggerEqual},
		{name: "unknown value", input: "X", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "gibberish", input: ">=", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTrigger(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTrigger)
				assert.False(t, got.Valid())
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestApplyResultFromRows(t *testing.T) {
	assert.Equal(t, ResultApplied, ApplyResultFromRows(1))
	assert.Equal(t, ResultApplied, ApplyResultFromRows(3))
	assert.Equal(t, ResultNotFound, ApplyResultFromRows(0))
	assert.True(t, ResultApplied.Applied())
	assert.False(t, ResultNotFound.Applied())
}
