package exam

import (
	"time"

	"github.com/stemsi/exstem-quiz/internal/model"
)

// Outcome of a recorder call, returned so callers can log and publish it.
type Outcome struct {
	Index    int
	Answer   model.Answer
	Finished bool
}

// Submit answers the question at index with selected.
//
// Expiry is re-checked here with now: when the question has run out of time,
// a timeout is recorded whatever selected holds. A second call for an index
// that is already recorded is rejected with ErrAlreadyRecorded and changes
// nothing.
func (s *Session) Submit(index int, selected string, now time.Time) (Outcome, error) {
	if err := s.checkActive(index); err != nil {
		return Outcome{}, err
	}

	if s.guard.Expired(now, s.startedAt) {
		return s.record("", true, now)
	}

	if selected == "" {
		return Outcome{}, ErrEmptySelection
	}
	if !s.questions[s.current].HasOption(selected) {
		return Outcome{}, ErrUnknownOption
	}
	return s.record(selected, false, now)
}

// Tick force-submits the active question once its grace period after expiry
// is over. It reports whether a timeout was recorded.
func (s *Session) Tick(now time.Time) (Outcome, bool) {
	if s.phase != PhaseInProgress || !s.guard.DueForAdvance(now, s.startedAt) {
		return Outcome{}, false
	}
	out, err := s.record("", true, now)
	if err != nil {
		return Outcome{}, false
	}
	return out, true
}

func (s *Session) checkActive(index int) error {
	if s.phase != PhaseInProgress {
		if s.phase == PhaseFinished {
			if _, ok := s.answers[index]; ok {
				return ErrAlreadyRecorded
			}
		}
		return ErrNotInProgress
	}
	if _, ok := s.answers[index]; ok {
		return ErrAlreadyRecorded
	}
	if index != s.current {
		return ErrQuestionMismatch
	}
	return nil
}

// record is the only writer of s.answers and the only caller of advance.
func (s *Session) record(selected string, timedOut bool, now time.Time) (Outcome, error) {
	idx := s.current
	if _, ok := s.answers[idx]; ok {
		return Outcome{}, ErrAlreadyRecorded
	}
	q := s.questions[idx]

	ans := model.Answer{
		CorrectAnswer: q.Answer,
		Explanation:   q.Explanation,
		QuestionText:  q.Question,
		TimedOut:      timedOut,
	}

	if timedOut {
		ans.Selected = model.NoAnswerSentinel
		ans.TimeSpent = s.guard.Limit.Seconds()
		ans.IsCorrect = false
	} else {
		spent := now.Sub(s.startedAt)
		if spent < 0 {
			spent = 0
		}
		ans.Selected = selected
		ans.TimeSpent = spent.Seconds()
		ans.IsCorrect = selected == q.Answer
	}

	s.answers[idx] = ans
	s.order = append(s.order, idx)

	if err := s.advance(now); err != nil {
		return Outcome{}, err
	}

	return Outcome{Index: idx, Answer: ans, Finished: s.phase == PhaseFinished}, nil
}
