package service

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/credential"
	"github.com/stemsi/exstem-quiz/internal/exam"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/questionbank"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type scheduled struct {
	at time.Time
	fn func()
}

type fakeScheduler struct {
	mu    sync.Mutex
	armed map[string]scheduled
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{armed: make(map[string]scheduled)}
}

func (f *fakeScheduler) Schedule(key string, at time.Time, fn func()) {
	f.mu.Lock()
	f.armed[key] = scheduled{at: at, fn: fn}
	f.mu.Unlock()
}

func (f *fakeScheduler) Cancel(key string) {
	f.mu.Lock()
	delete(f.armed, key)
	f.mu.Unlock()
}

func (f *fakeScheduler) get(key string) (scheduled, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.armed[key]
	return s, ok
}

type countingProvider struct {
	mu    sync.Mutex
	calls int
	bank  *questionbank.Bank
	err   error
}

func (p *countingProvider) Load(context.Context) (*questionbank.Bank, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.bank, p.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev SessionEvent) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	svc      *ExamService
	clock    *fakeClock
	timers   *fakeScheduler
	provider *countingProvider
	events   *recordingPublisher
}

func newFixture(t *testing.T, answers ...string) *fixture {
	t.Helper()

	qs := make([]model.Question, len(answers))
	for i, a := range answers {
		qs[i] = model.Question{
			Question:    "Question?",
			Options:     []string{"A", "B", "C"},
			Answer:      a,
			Explanation: "Because.",
		}
	}
	b, err := questionbank.New(qs)
	if err != nil {
		t.Fatalf("bank: %v", err)
	}

	checker, err := credential.NewSecretChecker(credential.EncodePassword("letmein"), "")
	if err != nil {
		t.Fatalf("checker: %v", err)
	}

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour}
	clock := &fakeClock{now: t0}
	auth := NewAuthService(cfg)
	auth.now = clock.Now

	f := &fixture{
		clock:    clock,
		timers:   newFakeScheduler(),
		provider: &countingProvider{bank: b},
		events:   &recordingPublisher{},
	}
	f.svc = NewExamService(f.provider, checker, auth, f.timers, f.events,
		exam.NewTimeoutGuard(120*time.Second, 2*time.Second), zerolog.Nop())
	f.svc.now = clock.Now
	return f
}

func (f *fixture) login(t *testing.T) *LoginResult {
	t.Helper()
	res, err := f.svc.Login(context.Background(), "Ada", "letmein")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return res
}

func TestLogin_StartsSessionAndArmsTimer(t *testing.T) {
	f := newFixture(t, "A", "B")

	res := f.login(t)

	if res.Token == "" || res.SessionID == "" {
		t.Fatalf("expected token and session id, got %+v", res)
	}
	if res.State.Phase != exam.PhaseInProgress || res.State.Index != 0 || res.State.Total != 2 {
		t.Errorf("unexpected state %+v", res.State)
	}
	armed, ok := f.timers.get(res.SessionID)
	if !ok || !armed.at.Equal(t0.Add(122*time.Second)) {
		t.Errorf("expected timer at deadline+grace, got %+v (armed=%v)", armed.at, ok)
	}
	if f.provider.calls != 1 {
		t.Errorf("bank must be loaded once per session, got %d", f.provider.calls)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != EventSessionStarted {
		t.Errorf("unexpected events %v", got)
	}

	claims, err := f.svc.auth.ValidateToken(res.Token)
	if err != nil || claims.SessionID() != res.SessionID || claims.StudentName != "Ada" {
		t.Errorf("token does not identify the session: %+v %v", claims, err)
	}
}

func TestLogin_RejectedPasswordCreatesNothing(t *testing.T) {
	f := newFixture(t, "A")

	_, err := f.svc.Login(context.Background(), "Ada", "wrong")

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if f.svc.ActiveSessions() != 0 {
		t.Errorf("no session may be created")
	}
	if f.provider.calls != 0 {
		t.Errorf("question bank must not be loaded, got %d loads", f.provider.calls)
	}
}

func TestLogin_EmptyNameIsCheckedFirst(t *testing.T) {
	f := newFixture(t, "A")
	if _, err := f.svc.Login(context.Background(), "  ", "letmein"); !errors.Is(err, exam.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestLogin_BankFailureIsConfigurationError(t *testing.T) {
	f := newFixture(t, "A")
	f.provider.bank = nil
	f.provider.err = questionbank.ErrSourceMissing

	_, err := f.svc.Login(context.Background(), "Ada", "letmein")

	if !errors.Is(err, ErrConfiguration) || !errors.Is(err, questionbank.ErrSourceMissing) {
		t.Fatalf("expected configuration error wrapping the cause, got %v", err)
	}
	if f.svc.ActiveSessions() != 0 {
		t.Errorf("no session may be created")
	}
}

func TestLogin_SessionsAreIsolated(t *testing.T) {
	f := newFixture(t, "A", "B")
	a := f.login(t)
	b := f.login(t)

	if _, err := f.svc.Submit(context.Background(), a.SessionID, 0, "A"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	st, err := f.svc.State(context.Background(), b.SessionID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Index != 0 {
		t.Errorf("answering in one session must not move another, got index %d", st.Index)
	}
}

func TestSubmit_AdvancesAndRearmsTimer(t *testing.T) {
	f := newFixture(t, "A", "B")
	res := f.login(t)

	f.clock.Advance(30 * time.Second)
	st, err := f.svc.Submit(context.Background(), res.SessionID, 0, "A")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if st.Index != 1 || st.RemainingSeconds != 120 {
		t.Errorf("expected fresh question 2, got %+v", st)
	}
	armed, _ := f.timers.get(res.SessionID)
	if !armed.at.Equal(t0.Add(30*time.Second + 122*time.Second)) {
		t.Errorf("timer must be re-armed for question 2, got %v", armed.at)
	}
}

func TestSubmit_EmptySelectionReturnsStateAndWarning(t *testing.T) {
	f := newFixture(t, "A")
	res := f.login(t)

	st, err := f.svc.Submit(context.Background(), res.SessionID, 0, "")

	if !errors.Is(err, exam.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if st.Phase != exam.PhaseInProgress || st.Question == nil {
		t.Errorf("state must still show the question, got %+v", st)
	}
}

func TestSubmit_UnknownSession(t *testing.T) {
	f := newFixture(t, "A")
	if _, err := f.svc.Submit(context.Background(), "nope", 0, "A"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := f.svc.State(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestExpire_TimerForcesTimeoutThenClickIsDropped(t *testing.T) {
	f := newFixture(t, "A", "B")
	res := f.login(t)

	armed, _ := f.timers.get(res.SessionID)
	f.clock.Advance(122 * time.Second)
	armed.fn()

	st, err := f.svc.State(context.Background(), res.SessionID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Index != 1 {
		t.Fatalf("timer must advance to question 2, got %d", st.Index)
	}

	_, err = f.svc.Submit(context.Background(), res.SessionID, 0, "A")
	if !errors.Is(err, exam.ErrAlreadyRecorded) {
		t.Fatalf("late click must be dropped with ErrAlreadyRecorded, got %v", err)
	}

	types := f.events.types()
	if types[len(types)-1] != EventQuestionTimeout {
		t.Errorf("expected a timeout event, got %v", types)
	}
}

func TestExpire_EarlyFireRearms(t *testing.T) {
	f := newFixture(t, "A")
	res := f.login(t)

	f.clock.Advance(60 * time.Second)
	f.svc.Expire(res.SessionID)

	st, _ := f.svc.State(context.Background(), res.SessionID)
	if st.Phase != exam.PhaseInProgress || st.Index != 0 {
		t.Fatalf("early fire must not record anything, got %+v", st)
	}
	if _, ok := f.timers.get(res.SessionID); !ok {
		t.Errorf("timer must stay armed")
	}
}

func TestState_PollingAppliesForcedAdvance(t *testing.T) {
	f := newFixture(t, "A", "B")
	res := f.login(t)

	f.clock.Advance(121 * time.Second)
	st, _ := f.svc.State(context.Background(), res.SessionID)
	if !st.Expired || st.Index != 0 {
		t.Fatalf("expected time's up notice on question 1, got %+v", st)
	}

	f.clock.Advance(time.Second)
	st, _ = f.svc.State(context.Background(), res.SessionID)
	if st.Index != 1 || st.Expired {
		t.Fatalf("expected advance to question 2 after grace, got %+v", st)
	}
}

func TestFullExam_FinishesCancelsTimerAndReports(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "A", "B")
	res := f.login(t)
	ctx := context.Background()

	answers := []string{"A", "B", "", "A", "B"}
	for i, a := range answers {
		if i == 2 {
			f.clock.Advance(122 * time.Second)
			armed, _ := f.timers.get(res.SessionID)
			armed.fn()
			continue
		}
		f.clock.Advance(10 * time.Second)
		if _, err := f.svc.Submit(ctx, res.SessionID, i, a); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	rep, err := f.svc.Report(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rep.Correct != 4 || rep.ScorePercent != 80 || !rep.Passed {
		t.Errorf("expected 4/5 = 80%% passed, got %+v", rep)
	}
	if rep.Lines[2].Outcome != exam.OutcomeTimedOut || rep.Lines[2].TimeSpent != 120 {
		t.Errorf("unexpected line for question 3: %+v", rep.Lines[2])
	}
	if _, ok := f.timers.get(res.SessionID); ok {
		t.Errorf("timer must be cancelled once finished")
	}
	types := f.events.types()
	if types[len(types)-1] != EventExamFinished {
		t.Errorf("expected exam_finished last, got %v", types)
	}

	st, _ := f.svc.State(ctx, res.SessionID)
	if st.Phase != exam.PhaseFinished || st.Report == nil {
		t.Errorf("expected finished state with report")
	}
}

func TestReset_RemovesSession(t *testing.T) {
	f := newFixture(t, "A")
	res := f.login(t)
	ctx := context.Background()

	if err := f.svc.Reset(ctx, res.SessionID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := f.svc.State(ctx, res.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("reset session must be gone, got %v", err)
	}
	if _, ok := f.timers.get(res.SessionID); ok {
		t.Errorf("timer must be cancelled")
	}
	if err := f.svc.Reset(ctx, res.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second reset: expected ErrSessionNotFound, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t, "A")
	res := f.login(t)

	if n := f.svc.PurgeExpired(t0.Add(30 * time.Minute)); n != 0 {
		t.Fatalf("fresh session must survive, purged %d", n)
	}
	if n := f.svc.PurgeExpired(t0.Add(2 * time.Hour)); n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if _, ok := f.timers.get(res.SessionID); ok {
		t.Errorf("purged session timer must be cancelled")
	}
}

func TestAuthService_RejectsTamperedToken(t *testing.T) {
	f := newFixture(t, "A")
	res := f.login(t)

	if _, err := f.svc.auth.ValidateToken(res.Token + "x"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour})
	if _, err := other.ValidateToken(res.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign secret, got %v", err)
	}
}

// blockingPublisher holds every Publish call until release is closed.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPublisher) Publish(_ context.Context, _ SessionEvent) {
	select {
	case p.entered <- struct{}{}:
	default:
	}
	<-p.release
}

// stalledRedisClient points at a listener that accepts connections and never
// answers.
func stalledRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:                  ln.Addr().String(),
		MaxRetries:            -1,
		ContextTimeoutEnabled: true,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSubmit_PublishRunsOutsideSessionLock(t *testing.T) {
	f := newFixture(t, "A", "B")
	res := f.login(t)

	pub := &blockingPublisher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	f.svc.events = pub

	submitted := make(chan exam.State, 1)
	go func() {
		state, _ := f.svc.Submit(context.Background(), res.SessionID, 0, "A")
		submitted <- state
	}()

	select {
	case <-pub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("submit never published")
	}

	polled := make(chan exam.State, 1)
	go func() {
		state, _ := f.svc.State(context.Background(), res.SessionID)
		polled <- state
	}()

	select {
	case state := <-polled:
		if state.Index != 1 {
			t.Errorf("poll sees index %d, want 1", state.Index)
		}
	case <-time.After(time.Second):
		t.Fatal("State blocked while an event was being published")
	}

	close(pub.release)
	select {
	case state := <-submitted:
		if state.Index != 1 {
			t.Errorf("submit returned index %d, want 1", state.Index)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not return after release")
	}
}

func TestSubmit_StalledRedisReturnsPromptly(t *testing.T) {
	f := newFixture(t, "A")
	f.svc.events = NewRedisPublisher(stalledRedisClient(t), zerolog.Nop())

	start := time.Now()
	res := f.login(t)
	if d := time.Since(start); d > time.Second {
		t.Fatalf("login took %v behind a stalled Redis", d)
	}

	// The last answer emits two events.
	start = time.Now()
	state, err := f.svc.Submit(context.Background(), res.SessionID, 0, "A")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if d := time.Since(start); d > time.Second {
		t.Fatalf("submit took %v behind a stalled Redis", d)
	}
	if state.Phase != exam.PhaseFinished {
		t.Errorf("phase = %v, want finished", state.Phase)
	}
}
