package client

import (
	"time"

	"github.com/tomz197/clicktest/internal/input"
	"github.com/tomz197/clicktest/internal/loop"
	"github.com/tomz197/clicktest/internal/object"
)

const maxFieldLength = 32

// identifyForm is the two-field name and id entry.
type identifyForm struct {
	fields [2][]rune
	focus  int    // 0 first name, 1 id number
	err    string // Last validation message
}

func (f *identifyForm) firstName() string { return string(f.fields[0]) }
func (f *identifyForm) idNumber() string  { return string(f.fields[1]) }

func (f *identifyForm) typeRunes(rs []rune) {
	field := &f.fields[f.focus]
	for _, r := range rs {
		if len(*field) >= maxFieldLength {
			return
		}
		*field = append(*field, r)
	}
}

func (f *identifyForm) backspace() {
	field := &f.fields[f.focus]
	if n := len(*field); n > 0 {
		*field = (*field)[:n-1]
	}
}

func (f *identifyForm) reset() {
	*f = identifyForm{}
}

// screenKey identifies what is on screen; a change triggers a full clear.
type screenKey struct {
	phase    loop.Phase
	round    loop.RoundPhase
	shutdown bool
	inactive bool
}

// ClientState holds per-connection presentation state. Game state lives in
// the session.
type ClientState struct {
	Input         input.Input
	Form          identifyForm
	Notice        string // One-line message on the results card
	Effects       []object.Object
	toSpawn       []object.Object
	Running       bool          // Client loop running
	delta         time.Duration // Frame delta time
	shutdown      bool          // Server asked everyone to leave
	shutdownTimer float64       // Countdown before auto-disconnect on shutdown
	isInactive    bool          // Whether the client is in inactive warning state
	prevScreen    screenKey
	firstFrame    bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Running:    true,
		firstFrame: true,
	}
}

// Spawn queues an effect. Implements object.Spawner.
func (s *ClientState) Spawn(obj object.Object) {
	s.toSpawn = append(s.toSpawn, obj)
}

// updateEffects advances all effects and drops the expired ones.
func (s *ClientState) updateEffects() {
	ctx := object.UpdateContext{Delta: s.delta, Spawner: s}
	kept := s.Effects[:0]
	for _, obj := range s.Effects {
		remove, _ := obj.Update(ctx)
		if remove {
			object.ReleaseObject(obj)
			continue
		}
		kept = append(kept, obj)
	}
	s.Effects = append(kept, s.toSpawn...)
	s.toSpawn = s.toSpawn[:0]
}

// clearEffects releases every effect.
func (s *ClientState) clearEffects() {
	for _, obj := range s.Effects {
		object.ReleaseObject(obj)
	}
	s.Effects = s.Effects[:0]
	s.toSpawn = s.toSpawn[:0]
}
