package exam

import (
	"time"

	"github.com/stemsi/exstem-quiz/internal/model"
)

// State is the presentation-facing snapshot of a session.
type State struct {
	Phase       Phase               `json:"phase"`
	StudentName string              `json:"student_name,omitempty"`
	Question    *model.QuestionView `json:"question,omitempty"`
	Index       int                 `json:"index"`
	Total       int                 `json:"total"`
	// RemainingSeconds is authoritative and never negative.
	RemainingSeconds float64 `json:"remaining_seconds"`
	LimitSeconds     float64 `json:"limit_seconds"`
	// Expired is true during the grace window in which the "time's up"
	// notice is shown before the automatic advance.
	Expired bool    `json:"expired"`
	Warning bool    `json:"warning"`
	Report  *Report `json:"report,omitempty"`
}

// Snapshot describes the session at now. It does not mutate the session;
// call Tick first to apply a pending forced advance.
func (s *Session) Snapshot(now time.Time) State {
	st := State{
		Phase:        s.phase,
		StudentName:  s.studentName,
		Index:        s.current,
		Total:        len(s.questions),
		LimitSeconds: s.guard.Limit.Seconds(),
	}

	switch s.phase {
	case PhaseInProgress:
		view := s.questions[s.current].View()
		remaining := s.Remaining(now)
		st.Question = &view
		st.RemainingSeconds = remaining.Seconds()
		st.Expired = s.Expired(now)
		st.Warning = remaining < WarningWindow
	case PhaseFinished:
		if rep, err := s.Report(); err == nil {
			st.Report = &rep
		}
	}
	return st
}
