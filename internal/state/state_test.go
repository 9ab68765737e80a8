package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPath(t *testing.T) {
	m := New()
	for _, p := range []Phase{ConfigLoaded, ImagesResolved, Downloading, Uploading, CleaningUp, Done} {
		require.NoError(t, m.Transition(p), "transition to %s", p)
	}

	assert.True(t, m.Terminal())
	assert.Equal(t, []Phase{Idle, ConfigLoaded, ImagesResolved, Downloading, Uploading, CleaningUp, Done}, m.History())
}

func TestMachine_FailureEdges(t *testing.T) {
	tests := []struct {
		name string
		path []Phase
	}{
		{"resolve failure", []Phase{ConfigLoaded, Failed}},
		{"scratch failure", []Phase{ConfigLoaded, ImagesResolved, Failed}},
		{"upload failure after cleanup", []Phase{ConfigLoaded, ImagesResolved, Downloading, Uploading, CleaningUp, Failed}},
		{"batch could not start", []Phase{ConfigLoaded, ImagesResolved, Downloading, CleaningUp, Failed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			for _, p := range tt.path {
				require.NoError(t, m.Transition(p))
			}
			assert.Equal(t, Failed, m.Current())
			assert.True(t, m.Terminal())
		})
	}
}

func TestMachine_RejectsInvalidEdges(t *testing.T) {
	tests := []struct {
		name string
		from []Phase
		to   Phase
	}{
		{"skip resolution", []Phase{ConfigLoaded}, Downloading},
		{"upload before download", []Phase{ConfigLoaded, ImagesResolved}, Uploading},
		{"fail while downloading", []Phase{ConfigLoaded, ImagesResolved, Downloading}, Failed},
		{"failed is absorbing", []Phase{ConfigLoaded, Failed}, Done},
		{"done is terminal", []Phase{ConfigLoaded, ImagesResolved, Downloading, Uploading, CleaningUp, Done}, Idle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			for _, p := range tt.from {
				require.NoError(t, m.Transition(p))
			}
			before := m.Current()

			err := m.Transition(tt.to)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, m.Current())
		})
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "cleaning-up", CleaningUp.String())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
