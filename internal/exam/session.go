package exam

import (
	"strings"
	"time"

	"github.com/stemsi/exstem-quiz/internal/model"
)

// Phase enumerates the states of an exam session.
type Phase string

const (
	PhaseLoggedOut  Phase = "LOGGED_OUT"
	PhaseInProgress Phase = "IN_PROGRESS"
	PhaseFinished   Phase = "FINISHED"
)

// Session is one student's exam attempt. It is not safe for concurrent use;
// callers serialize access per session.
type Session struct {
	guard TimeoutGuard

	studentName string
	questions   []model.Question
	current     int
	startedAt   time.Time // zero while no question is running
	answers     map[int]model.Answer
	order       []int // indexes in completion order
	phase       Phase
}

// NewSession returns a logged-out session that will time questions with guard.
func NewSession(guard TimeoutGuard) *Session {
	return &Session{guard: guard, phase: PhaseLoggedOut}
}

// Begin starts the exam at question 0 and starts its clock.
// The caller is responsible for having verified the student's credentials.
func (s *Session) Begin(studentName string, questions []model.Question, now time.Time) error {
	if s.phase != PhaseLoggedOut {
		return ErrAlreadyStarted
	}
	name := strings.TrimSpace(studentName)
	if name == "" {
		return ErrEmptyName
	}
	if len(questions) == 0 {
		return ErrEmptyBank
	}

	qs := make([]model.Question, len(questions))
	copy(qs, questions)

	s.studentName = name
	s.questions = qs
	s.current = 0
	s.startedAt = now
	s.answers = make(map[int]model.Answer, len(qs))
	s.order = make([]int, 0, len(qs))
	s.phase = PhaseInProgress
	return nil
}

// Reset clears the attempt and returns to PhaseLoggedOut.
func (s *Session) Reset() {
	guard := s.guard
	*s = Session{guard: guard, phase: PhaseLoggedOut}
}

// Phase returns the current state.
func (s *Session) Phase() Phase { return s.phase }

// StudentName returns the trimmed name given at login.
func (s *Session) StudentName() string { return s.studentName }

// Guard returns the timeout guard used by the session.
func (s *Session) Guard() TimeoutGuard { return s.guard }

// Total is the number of questions in the attempt.
func (s *Session) Total() int { return len(s.questions) }

// CurrentIndex is the zero-based index of the active (or, once finished, the
// last) question.
func (s *Session) CurrentIndex() int { return s.current }

// QuestionStartedAt is when the active question was shown. Zero when unset.
func (s *Session) QuestionStartedAt() time.Time { return s.startedAt }

// CurrentQuestion returns the active question.
func (s *Session) CurrentQuestion() (model.Question, error) {
	if s.phase != PhaseInProgress {
		return model.Question{}, ErrNotInProgress
	}
	return s.questions[s.current], nil
}

// Answer returns the record stored for index, if any.
func (s *Session) Answer(index int) (model.Answer, bool) {
	a, ok := s.answers[index]
	return a, ok
}

// AnsweredCount is the number of recorded answers.
func (s *Session) AnsweredCount() int { return len(s.answers) }

// CompletionOrder returns the answered indexes in the order they were recorded.
func (s *Session) CompletionOrder() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// Remaining is the authoritative time left on the active question, never
// below zero. It is zero outside PhaseInProgress.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.phase != PhaseInProgress {
		return 0
	}
	r := s.guard.Remaining(now, s.startedAt)
	if r < 0 {
		return 0
	}
	return r
}

// Expired reports whether the active question has run out of time.
func (s *Session) Expired(now time.Time) bool {
	return s.phase == PhaseInProgress && s.guard.Expired(now, s.startedAt)
}

// AdvanceAt is when the active question will be force-submitted. The zero
// time is returned when no question is running.
func (s *Session) AdvanceAt() time.Time {
	if s.phase != PhaseInProgress {
		return time.Time{}
	}
	return s.guard.AdvanceAt(s.startedAt)
}

// advance moves to the next question, or finishes after the last one.
func (s *Session) advance(now time.Time) error {
	switch s.phase {
	case PhaseFinished:
		return ErrAlreadyFinished
	case PhaseLoggedOut:
		return ErrNotInProgress
	}

	if s.current < len(s.questions)-1 {
		s.current++
		s.startedAt = now
		return nil
	}

	s.phase = PhaseFinished
	s.startedAt = time.Time{}
	return nil
}
