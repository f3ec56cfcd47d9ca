package exam

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stemsi/exstem-quiz/internal/model"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func bank(answers ...string) []model.Question {
	qs := make([]model.Question, len(answers))
	for i, a := range answers {
		qs[i] = model.Question{
			Question:    fmt.Sprintf("Question %d?", i+1),
			Options:     []string{"A", "B", "C", "D"},
			Answer:      a,
			Explanation: fmt.Sprintf("Because %s.", a),
		}
	}
	return qs
}

func started(t *testing.T, answers ...string) *Session {
	t.Helper()
	s := NewSession(NewTimeoutGuard(DefaultTimeLimit, DefaultGrace))
	if err := s.Begin("  Ada Lovelace ", bank(answers...), t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	return s
}

func TestSession_Begin_StartsAtFirstQuestion(t *testing.T) {
	s := started(t, "A", "B")

	if s.Phase() != PhaseInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", s.Phase())
	}
	if s.StudentName() != "Ada Lovelace" {
		t.Errorf("expected trimmed name, got %q", s.StudentName())
	}
	if s.CurrentIndex() != 0 {
		t.Errorf("expected index 0, got %d", s.CurrentIndex())
	}
	if !s.QuestionStartedAt().Equal(t0) {
		t.Errorf("expected clock started at %v, got %v", t0, s.QuestionStartedAt())
	}
	if s.AnsweredCount() != 0 {
		t.Errorf("expected no answers, got %d", s.AnsweredCount())
	}
}

func TestSession_Begin_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		student   string
		questions []model.Question
		want      error
	}{
		{name: "empty bank", student: "Ada", questions: nil, want: ErrEmptyBank},
		{name: "blank name", student: "   ", questions: bank("A"), want: ErrEmptyName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(NewTimeoutGuard(0, 0))
			err := s.Begin(tt.student, tt.questions, t0)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if s.Phase() != PhaseLoggedOut {
				t.Errorf("session must stay logged out, got %s", s.Phase())
			}
		})
	}
}

func TestSession_Begin_Twice_ReturnsError(t *testing.T) {
	s := started(t, "A")
	if err := s.Begin("Other", bank("B"), t0); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	if s.StudentName() != "Ada Lovelace" {
		t.Errorf("running session must not be replaced")
	}
}

func TestSession_CurrentQuestion_OutsideInProgress(t *testing.T) {
	s := NewSession(NewTimeoutGuard(0, 0))
	if _, err := s.CurrentQuestion(); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("logged out: expected ErrNotInProgress, got %v", err)
	}

	s = started(t, "A")
	if _, err := s.Submit(0, "A", t0.Add(time.Second)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := s.CurrentQuestion(); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("finished: expected ErrNotInProgress, got %v", err)
	}
}

func TestSession_Advance_WhenFinished_ReturnsError(t *testing.T) {
	s := started(t, "A")
	if _, err := s.Submit(0, "A", t0.Add(time.Second)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.advance(t0.Add(2 * time.Second)); !errors.Is(err, ErrAlreadyFinished) {
		t.Fatalf("expected ErrAlreadyFinished, got %v", err)
	}
	if !errors.Is(ErrAlreadyFinished, ErrInvalidTransition) {
		t.Error("ErrAlreadyFinished must be an invalid transition")
	}
}

func TestSession_Advance_RestartsClockAndFinishesOnLast(t *testing.T) {
	s := started(t, "A", "B")

	at := t0.Add(15 * time.Second)
	if _, err := s.Submit(0, "A", at); err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	if s.CurrentIndex() != 1 || !s.QuestionStartedAt().Equal(at) {
		t.Fatalf("expected index 1 started at %v, got %d at %v", at, s.CurrentIndex(), s.QuestionStartedAt())
	}

	out, err := s.Submit(1, "B", at.Add(5*time.Second))
	if err != nil {
		t.Fatalf("submit q2: %v", err)
	}
	if !out.Finished || s.Phase() != PhaseFinished {
		t.Fatalf("expected finished after last question")
	}
	if s.CurrentIndex() != 1 {
		t.Errorf("finished session must keep the last active index, got %d", s.CurrentIndex())
	}
	if !s.QuestionStartedAt().IsZero() {
		t.Errorf("clock must be stopped once finished")
	}
	if !s.AdvanceAt().IsZero() {
		t.Errorf("no forced advance is scheduled once finished")
	}
}

func TestSession_Reset_ClearsEverything(t *testing.T) {
	s := started(t, "A", "B")
	if _, err := s.Submit(0, "A", t0.Add(time.Second)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	s.Reset()

	if s.Phase() != PhaseLoggedOut {
		t.Fatalf("expected LOGGED_OUT, got %s", s.Phase())
	}
	if s.StudentName() != "" || s.Total() != 0 || s.AnsweredCount() != 0 || s.CurrentIndex() != 0 {
		t.Errorf("reset left state behind: %+v", s.Snapshot(t0))
	}
	if s.Guard().Limit != DefaultTimeLimit {
		t.Errorf("reset must keep the configured guard")
	}
	if err := s.Begin("Grace Hopper", bank("C"), t0); err != nil {
		t.Fatalf("a reset session can start again: %v", err)
	}
}

func TestSession_Snapshot_InProgress(t *testing.T) {
	s := started(t, "A", "B")

	st := s.Snapshot(t0.Add(100 * time.Second))

	if st.Phase != PhaseInProgress || st.Question == nil {
		t.Fatalf("expected an active question, got %+v", st)
	}
	if st.Question.Question != "Question 1?" || len(st.Question.Options) != 4 {
		t.Errorf("unexpected question view: %+v", st.Question)
	}
	if st.RemainingSeconds != 20 {
		t.Errorf("expected 20s remaining, got %v", st.RemainingSeconds)
	}
	if !st.Warning {
		t.Errorf("expected warning under 30s")
	}
	if st.Expired {
		t.Errorf("question must not be expired yet")
	}
	if st.Total != 2 || st.Index != 0 || st.LimitSeconds != 120 {
		t.Errorf("unexpected counters: %+v", st)
	}
}

func TestSession_Snapshot_FinishedCarriesReport(t *testing.T) {
	s := started(t, "A")
	if _, err := s.Submit(0, "A", t0.Add(3*time.Second)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	st := s.Snapshot(t0.Add(10 * time.Second))

	if st.Phase != PhaseFinished || st.Report == nil {
		t.Fatalf("expected finished state with report, got %+v", st)
	}
	if st.Question != nil {
		t.Errorf("finished state must not expose a question")
	}
	if st.RemainingSeconds != 0 {
		t.Errorf("finished state has no remaining time, got %v", st.RemainingSeconds)
	}
}
