package dialogue

import (
	"errors"

	"github.com/abhisek/skillforge/internal/generation"
	"github.com/abhisek/skillforge/internal/outcome"
)

// Mode sets the session length and how hard the counterpart is to win.
type Mode string

const (
	Short    Mode = "short"
	Standard Mode = "standard"
	Extended Mode = "extended"
)

var durations = map[Mode]int{
	Short:    300,
	Standard: 600,
	Extended: 900,
}

// Duration returns the session length in seconds, or 0 for an unknown
// mode.
func (m Mode) Duration() int {
	return durations[m]
}

type Phase string

const (
	PhaseSetup         Phase = "setup"
	PhaseActive        Phase = "active"
	PhaseAwaitingReply Phase = "awaitingReply"
	PhaseEvaluating    Phase = "evaluating"
	PhaseResolved      Phase = "resolved"
)

var transitions = map[Phase][]Phase{
	PhaseSetup:         {PhaseActive},
	PhaseActive:        {PhaseAwaitingReply, PhaseEvaluating},
	PhaseAwaitingReply: {PhaseActive, PhaseEvaluating},
	PhaseEvaluating:    {PhaseResolved},
}

var (
	ErrEmptyMessage   = errors.New("dialogue: message is empty")
	ErrUnknownPersona = errors.New("dialogue: unknown persona")
	// ErrSuperseded is returned when the session was reset while a call
	// was in flight.
	ErrSuperseded = errors.New("dialogue: session reset during call")
)

// StartRequest begins a negotiation. PersonaID is optional; empty picks a
// persona at random.
type StartRequest struct {
	Mode      Mode   `validate:"required,oneof=short standard extended"`
	PersonaID string `validate:"omitempty"`
	Product   string `validate:"required,max=2000"`
	User      string `validate:"omitempty,max=64"`
}

// Session is a point-in-time copy of the dialogue state.
type Session struct {
	ID      string
	User    string
	Mode    Mode
	Persona Persona
	Product string
	Phase   Phase

	// Transcript is a copy; the controller only ever appends to its own.
	Transcript generation.Transcript

	TimeRemainingSeconds int
	// AttemptCount counts sessions started on this controller, surviving
	// Reset.
	AttemptCount int

	// Result is set once the session is resolved.
	Result *outcome.Result

	// LastError is the most recent reply failure that was answered with
	// the persona's fallback line.
	LastError error
}

// Turn is what Send returns.
type Turn struct {
	Reply generation.Message
	// Fallback is set when Reply is the persona's canned line.
	Fallback bool
	// Result is set when the reply closed the negotiation and the
	// session was evaluated.
	Result *outcome.Result
}
