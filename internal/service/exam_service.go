package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/credential"
	"github.com/stemsi/exstem-quiz/internal/exam"
	"github.com/stemsi/exstem-quiz/internal/questionbank"
)

var (
	// ErrConfiguration wraps deployment defects (question bank or secret
	// missing or corrupt). The exam cannot start until it is fixed.
	ErrConfiguration   = errors.New("exam configuration error")
	ErrSessionNotFound = errors.New("exam session not found")
)

// Scheduler arms one cancellable callback per key. Scheduling a key again
// replaces its previous callback.
type Scheduler interface {
	Schedule(key string, at time.Time, fn func())
	Cancel(key string)
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	State     exam.State
}

// ExamService owns every running exam session and is the single entry point
// the presentation layer uses to read or change one.
type ExamService struct {
	bank    questionbank.Provider
	checker credential.Checker
	auth    *AuthService
	timers  Scheduler
	events  EventPublisher
	guard   exam.TimeoutGuard
	store   *sessionStore
	now     func() time.Time
	log     zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	bank questionbank.Provider,
	checker credential.Checker,
	auth *AuthService,
	timers Scheduler,
	events EventPublisher,
	guard exam.TimeoutGuard,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		bank:    bank,
		checker: checker,
		auth:    auth,
		timers:  timers,
		events:  events,
		guard:   guard,
		store:   newSessionStore(),
		now:     time.Now,
		log:     log.With().Str("component", "exam_service").Logger(),
	}
}

// Guard exposes the timing rules shared by every session.
func (s *ExamService) Guard() exam.TimeoutGuard { return s.guard }

// ActiveSessions is the number of sessions currently held.
func (s *ExamService) ActiveSessions() int { return s.store.len() }

// HasSession reports whether sessionID is still held. A reset or purged
// session fails this check even while its token is unexpired.
func (s *ExamService) HasSession(sessionID string) bool {
	_, ok := s.store.get(sessionID)
	return ok
}

// Login verifies the password, loads the question bank and starts a new
// session. On a rejected password nothing is created or loaded.
func (s *ExamService) Login(ctx context.Context, studentName, password string) (*LoginResult, error) {
	name := strings.TrimSpace(studentName)
	if name == "" {
		return nil, exam.ErrEmptyName
	}

	if s.checker == nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, credential.ErrSecretMissing)
	}
	if !s.checker.Verify(password) {
		s.log.Info().Str("student", name).Msg("Login rejected")
		return nil, ErrInvalidCredentials
	}

	bank, err := s.bank.Load(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Question bank unavailable")
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	now := s.now()
	sess := exam.NewSession(s.guard)
	if err := sess.Begin(name, bank.Questions(), now); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	token, expiresAt, err := s.auth.IssueSessionToken(id, name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	entry := &sessionEntry{session: sess, expiresAt: expiresAt}
	s.store.put(id, entry)

	entry.mu.Lock()
	s.armTimer(id, sess)
	state := sess.Snapshot(now)
	entry.mu.Unlock()

	s.log.Info().
		Str("session_id", id).
		Str("student", name).
		Int("questions", sess.Total()).
		Msg("Exam started")

	s.publish(ctx, []SessionEvent{{
		Type:        EventSessionStarted,
		SessionID:   id,
		StudentName: name,
		Total:       sess.Total(),
		At:          now,
	}})

	return &LoginResult{Token: token, SessionID: id, ExpiresAt: expiresAt, State: state}, nil
}

// State applies any forced advance that is due and returns the snapshot.
func (s *ExamService) State(ctx context.Context, sessionID string) (exam.State, error) {
	entry, ok := s.store.get(sessionID)
	if !ok {
		return exam.State{Phase: exam.PhaseLoggedOut}, ErrSessionNotFound
	}

	entry.mu.Lock()
	now := s.now()
	_, events := s.tickLocked(sessionID, entry.session, now)
	state := entry.session.Snapshot(now)
	entry.mu.Unlock()

	s.publish(ctx, events)
	return state, nil
}

// Submit answers the active question. The returned state is valid even when
// err is non-nil, so callers can re-render the question with a warning.
func (s *ExamService) Submit(ctx context.Context, sessionID string, index int, option string) (exam.State, error) {
	entry, ok := s.store.get(sessionID)
	if !ok {
		return exam.State{Phase: exam.PhaseLoggedOut}, ErrSessionNotFound
	}

	entry.mu.Lock()
	sess := entry.session
	now := s.now()

	out, err := sess.Submit(index, option, now)
	if err != nil {
		state := sess.Snapshot(now)
		entry.mu.Unlock()

		evt := s.log.Debug()
		if errors.Is(err, exam.ErrInvalidTransition) {
			evt = s.log.Warn()
		}
		evt.Err(err).
			Str("session_id", sessionID).
			Int("question_index", index).
			Msg("Submission rejected")
		return state, err
	}

	events := s.afterRecord(sessionID, sess, out, now)
	state := sess.Snapshot(now)
	entry.mu.Unlock()

	s.publish(ctx, events)
	return state, nil
}

// Expire is the timer callback: it force-submits the active question of the
// session if it is due.
func (s *ExamService) Expire(sessionID string) {
	entry, ok := s.store.get(sessionID)
	if !ok {
		return
	}

	entry.mu.Lock()
	sess := entry.session
	now := s.now()
	fired, events := s.tickLocked(sessionID, sess, now)
	if !fired && sess.Phase() == exam.PhaseInProgress {
		// Fired early (timer drift); try again at the real deadline.
		s.armTimer(sessionID, sess)
	}
	entry.mu.Unlock()

	s.publish(context.Background(), events)
}

// Report returns the final report of a finished session.
func (s *ExamService) Report(_ context.Context, sessionID string) (exam.Report, error) {
	entry, ok := s.store.get(sessionID)
	if !ok {
		return exam.Report{}, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Report()
}

// Reset discards the session so the student can start a new exam.
func (s *ExamService) Reset(ctx context.Context, sessionID string) error {
	entry, ok := s.store.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	name := entry.session.StudentName()
	entry.session.Reset()
	entry.mu.Unlock()

	s.store.delete(sessionID)
	s.timers.Cancel(sessionID)

	s.log.Info().Str("session_id", sessionID).Str("student", name).Msg("Session reset")
	s.publish(ctx, []SessionEvent{{
		Type:        EventSessionReset,
		SessionID:   sessionID,
		StudentName: name,
		At:          s.now(),
	}})
	return nil
}

// PurgeExpired drops sessions whose token can no longer be presented.
func (s *ExamService) PurgeExpired(now time.Time) int {
	removed := s.store.purge(now)
	for _, id := range removed {
		s.timers.Cancel(id)
	}
	return len(removed)
}

// tickLocked runs the forced-advance check. entry.mu must be held; the
// returned events are published by the caller once it is released.
func (s *ExamService) tickLocked(sessionID string, sess *exam.Session, now time.Time) (bool, []SessionEvent) {
	out, ok := sess.Tick(now)
	if !ok {
		return false, nil
	}
	return true, s.afterRecord(sessionID, sess, out, now)
}

// afterRecord re-arms or cancels the timer and builds the events of a
// recorded answer. entry.mu must be held.
func (s *ExamService) afterRecord(sessionID string, sess *exam.Session, out exam.Outcome, now time.Time) []SessionEvent {
	ev := SessionEvent{
		Type:          EventAnswerRecorded,
		SessionID:     sessionID,
		StudentName:   sess.StudentName(),
		QuestionIndex: out.Index,
		Total:         sess.Total(),
		IsCorrect:     out.Answer.IsCorrect,
		TimeSpent:     out.Answer.TimeSpent,
		At:            now,
	}
	if out.Answer.TimedOut {
		ev.Type = EventQuestionTimeout
	}

	s.log.Info().
		Str("session_id", sessionID).
		Int("question_index", out.Index).
		Bool("timed_out", out.Answer.TimedOut).
		Bool("is_correct", out.Answer.IsCorrect).
		Float64("time_spent", out.Answer.TimeSpent).
		Msg("Answer recorded")

	if !out.Finished {
		s.armTimer(sessionID, sess)
		return []SessionEvent{ev}
	}

	s.timers.Cancel(sessionID)
	rep, err := sess.Report()
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("Build report")
		return []SessionEvent{ev}
	}

	s.log.Info().
		Str("session_id", sessionID).
		Float64("score", rep.ScorePercent).
		Int("correct", rep.Correct).
		Int("total", rep.Total).
		Bool("passed", rep.Passed).
		Msg("Exam finished and graded")

	return []SessionEvent{ev, {
		Type:         EventExamFinished,
		SessionID:    sessionID,
		StudentName:  sess.StudentName(),
		Total:        rep.Total,
		ScorePercent: &rep.ScorePercent,
		Passed:       &rep.Passed,
		At:           now,
	}}
}

// publish hands events to the publisher. It must not be called with an
// entry lock held. A cancelled request does not cancel its events.
func (s *ExamService) publish(ctx context.Context, events []SessionEvent) {
	if len(events) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, ev := range events {
		s.events.Publish(ctx, ev)
	}
}

func (s *ExamService) armTimer(sessionID string, sess *exam.Session) {
	at := sess.AdvanceAt()
	if at.IsZero() {
		return
	}
	s.timers.Schedule(sessionID, at, func() { s.Expire(sessionID) })
}
