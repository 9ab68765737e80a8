package state

import (
	"errors"
	"fmt"

	"percy-figma/internal/logger"
)

// Phase is a step of a single run.
type Phase int

const (
	Idle Phase = iota
	ConfigLoaded
	ImagesResolved
	Downloading
	Uploading
	CleaningUp
	Done
	Failed
)

var phaseNames = [...]string{
	Idle:           "idle",
	ConfigLoaded:   "config-loaded",
	ImagesResolved: "images-resolved",
	Downloading:    "downloading",
	Uploading:      "uploading",
	CleaningUp:     "cleaning-up",
	Done:           "done",
	Failed:         "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ErrInvalidTransition is returned for an edge the run lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid phase transition")

// transitions lists the allowed edges. Done and Failed have none.
var transitions = map[Phase][]Phase{
	Idle:           {ConfigLoaded},
	ConfigLoaded:   {ImagesResolved, Failed},
	ImagesResolved: {Downloading, Failed},
	Downloading:    {Uploading, CleaningUp},
	Uploading:      {CleaningUp},
	CleaningUp:     {Done, Failed},
}

// Machine tracks the phase of one run. It is not safe for concurrent use;
// the runner drives it from a single goroutine.
type Machine struct {
	current Phase
	history []Phase
}

// New returns a machine in the Idle phase.
func New() *Machine {
	return &Machine{current: Idle, history: []Phase{Idle}}
}

// Current returns the phase the run is in.
func (m *Machine) Current() Phase {
	return m.current
}

// History returns every phase visited, oldest first.
func (m *Machine) History() []Phase {
	out := make([]Phase, len(m.history))
	copy(out, m.history)
	return out
}

// Transition moves the machine to the given phase.
func (m *Machine) Transition(to Phase) error {
	for _, next := range transitions[m.current] {
		if next == to {
			logger.Debug("[DEBUG] Run phase %s -> %s\n", m.current, to)
			m.current = to
			m.history = append(m.history, to)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, to)
}

// Terminal reports whether the run has finished, successfully or not.
func (m *Machine) Terminal() bool {
	return m.current == Done || m.current == Failed
}
