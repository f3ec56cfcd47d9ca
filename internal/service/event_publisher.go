package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
)

// EventType names a session lifecycle event.
type EventType string

const (
	EventSessionStarted  EventType = "session_started"
	EventAnswerRecorded  EventType = "answer_recorded"
	EventQuestionTimeout EventType = "question_timed_out"
	EventExamFinished    EventType = "exam_finished"
	EventSessionReset    EventType = "session_reset"
)

// SessionEvent is broadcast to proctors for live monitoring.
type SessionEvent struct {
	Type          EventType `json:"type"`
	SessionID     string    `json:"session_id"`
	StudentName   string    `json:"student_name"`
	QuestionIndex int       `json:"question_index"`
	Total         int       `json:"total"`
	IsCorrect     bool      `json:"is_correct,omitempty"`
	TimeSpent     float64   `json:"time_spent,omitempty"`
	ScorePercent  *float64  `json:"score_percent,omitempty"`
	Passed        *bool     `json:"passed,omitempty"`
	At            time.Time `json:"at"`
}

// PublishTimeout bounds one delivery attempt of a session event.
const PublishTimeout = 300 * time.Millisecond

// DefaultEventBuffer is the queue length of an AsyncPublisher.
const DefaultEventBuffer = 256

// EventPublisher fans session events out. Publishing never fails the caller.
type EventPublisher interface {
	Publish(ctx context.Context, ev SessionEvent)
}

// AsyncPublisher queues events for a background delivery loop so that a slow
// backend never holds up the student. Events are dropped when the queue is
// full.
type AsyncPublisher struct {
	next  EventPublisher
	queue chan SessionEvent
	log   zerolog.Logger
}

// NewAsyncPublisher wraps next; a non-positive buffer uses DefaultEventBuffer.
func NewAsyncPublisher(next EventPublisher, buffer int, log zerolog.Logger) *AsyncPublisher {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &AsyncPublisher{
		next:  next,
		queue: make(chan SessionEvent, buffer),
		log:   log.With().Str("component", "event_queue").Logger(),
	}
}

// Publish enqueues ev without blocking.
func (p *AsyncPublisher) Publish(_ context.Context, ev SessionEvent) {
	select {
	case p.queue <- ev:
	default:
		p.log.Warn().
			Str("type", string(ev.Type)).
			Str("session_id", ev.SessionID).
			Msg("Event queue full, session event dropped")
	}
}

// Start delivers queued events until ctx is done. Each delivery gets its own
// PublishTimeout.
func (p *AsyncPublisher) Start(ctx context.Context) {
	p.log.Info().Int("buffer", cap(p.queue)).Msg("Event publisher started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Int("pending", len(p.queue)).Msg("Event publisher stopped")
			return
		case ev := <-p.queue:
			pubCtx, cancel := context.WithTimeout(ctx, PublishTimeout)
			p.next.Publish(pubCtx, ev)
			cancel()
		}
	}
}

// RedisPublisher sends events to the exam monitor PubSub channel.
type RedisPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(rdb *redis.Client, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb: rdb,
		log: log.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish sends ev within PublishTimeout. The client must have
// ContextTimeoutEnabled for the bound to cut a hung round trip short.
func (p *RedisPublisher) Publish(ctx context.Context, ev SessionEvent) {
	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("Marshal session event")
		return
	}
	if err := p.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(), payload).Err(); err != nil {
		p.log.Warn().Err(err).Str("type", string(ev.Type)).Msg("Publish session event failed")
	}
}

// LogPublisher records events in the log only; used when Redis is disabled.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With().Str("component", "event_publisher").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, ev SessionEvent) {
	p.log.Debug().
		Str("type", string(ev.Type)).
		Str("session_id", ev.SessionID).
		Int("question_index", ev.QuestionIndex).
		Msg("Session event")
}
