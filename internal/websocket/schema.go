package websocket

import "github.com/stemsi/exstem-quiz/internal/exam"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// SubmitRequest answers the active question. QuestionIndex is required.
// Option may be empty, which is only accepted once the question has run out
// of time.
type SubmitRequest struct {
	Action        Action `json:"action"`
	QuestionIndex *int   `json:"question_index"`
	Option        string `json:"option"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick  Event = "tick"
	EventState Event = "state"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// TickResponse is pushed every second to correct the client countdown.
type TickResponse struct {
	Event            Event   `json:"event"`
	Index            int     `json:"index"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	Expired          bool    `json:"expired"`
	Warning          bool    `json:"warning"`
}

// StateResponse carries the full state whenever the question or phase changes.
type StateResponse struct {
	Event Event      `json:"event"`
	State exam.State `json:"state"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// NewTick builds the tick event for s.
func NewTick(s exam.State) TickResponse {
	return TickResponse{
		Event:            EventTick,
		Index:            s.Index,
		RemainingSeconds: s.RemainingSeconds,
		Expired:          s.Expired,
		Warning:          s.Warning,
	}
}
