// Package questionbank loads and validates the ordered question list of an exam.
package questionbank

import (
	"context"

	"github.com/stemsi/exstem-quiz/internal/model"
)

// Provider yields a validated bank. Implementations must fail on a missing
// source, a decode error or a malformed record.
type Provider interface {
	Load(ctx context.Context) (*Bank, error)
}

// Bank is an immutable, ordered, non-empty list of questions.
type Bank struct {
	questions []model.Question
}

// New validates questions and wraps them in a Bank.
func New(questions []model.Question) (*Bank, error) {
	normalized, err := Normalize(questions)
	if err != nil {
		return nil, err
	}
	return &Bank{questions: normalized}, nil
}

// Len is the number of questions.
func (b *Bank) Len() int { return len(b.questions) }

// Questions returns a copy of the questions in exam order.
func (b *Bank) Questions() []model.Question {
	out := make([]model.Question, len(b.questions))
	for i, q := range b.questions {
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		q.Options = opts
		out[i] = q
	}
	return out
}
