package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"off":     ModeOff,
		"OFF":     ModeOff,
		"passive": ModePassive,
		"lurk":    ModeLurking,
		"Lurking": ModeLurking,
		" active": ModeActive,
	}

	for input, want := range tests {
		got, err := ParseMode(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseMode("loud")
	assert.Error(t, err)
}

func TestMode_StringRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeOff, ModePassive, ModeLurking, ModeActive} {
		parsed, err := ParseMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}
}

func TestInitialMode(t *testing.T) {
	assert.Equal(t, ModeActive, InitialMode(KindChannel))
	assert.Equal(t, ModeLurking, InitialMode(KindThread))
	assert.Equal(t, ModeActive, InitialMode(KindDirect))
	assert.Equal(t, ModePassive, InitialMode(KindOther))
}

func TestDecisionTable(t *testing.T) {
	tests := []struct {
		mode      Mode
		mentioned bool
		process   bool
		respond   bool
	}{
		{ModeOff, false, false, false},
		{ModeOff, true, false, false},
		{ModePassive, false, false, false},
		{ModePassive, true, true, true},
		{ModeLurking, false, true, false},
		{ModeLurking, true, true, true},
		{ModeActive, false, true, true},
		{ModeActive, true, true, true},
	}

	for _, tt := range tests {
		state := &State{Mode: tt.mode}

		assert.Equal(t, tt.process, state.ShouldProcess(false, tt.mentioned), "process %s mentioned=%v", tt.mode, tt.mentioned)
		assert.Equal(t, tt.respond, state.ShouldRespond(tt.mentioned), "respond %s mentioned=%v", tt.mode, tt.mentioned)
		assert.False(t, state.ShouldProcess(true, tt.mentioned), "own message %s", tt.mode)
	}
}
