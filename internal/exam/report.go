package exam

import "github.com/stemsi/exstem-quiz/internal/model"

// PassThreshold is the score percentage needed to pass.
const PassThreshold = 80.0

// ReportOutcome is the three-way classification of one answered question.
type ReportOutcome string

const (
	OutcomeCorrect   ReportOutcome = "correct"
	OutcomeIncorrect ReportOutcome = "incorrect"
	OutcomeTimedOut  ReportOutcome = "timed_out"
)

// ReportLine describes one question in the final report.
type ReportLine struct {
	Index         int           `json:"index"`
	Number        int           `json:"number"`
	Outcome       ReportOutcome `json:"outcome"`
	TimeSpent     float64       `json:"time_spent"`
	QuestionText  string        `json:"question_text"`
	Selected      string        `json:"selected"`
	CorrectAnswer string        `json:"correct_answer"`
	Explanation   string        `json:"explanation"`
}

// Report is the scored summary of a finished attempt.
type Report struct {
	StudentName  string       `json:"student_name"`
	Total        int          `json:"total"`
	Correct      int          `json:"correct"`
	Incorrect    int          `json:"incorrect"`
	TimedOut     int          `json:"timed_out"`
	ScorePercent float64      `json:"score_percent"`
	Passed       bool         `json:"passed"`
	Threshold    float64      `json:"threshold"`
	Lines        []ReportLine `json:"lines"`
}

// Errors matches the "errors" figure of the summary: every question that was
// not answered correctly, timeouts included.
func (r Report) Errors() int { return r.Total - r.Correct }

// Report derives the score report. It has no side effects and may be called
// any number of times once the session is finished.
func (s *Session) Report() (Report, error) {
	if s.phase != PhaseFinished {
		return Report{}, ErrNotFinished
	}

	rep := Report{
		StudentName: s.studentName,
		Total:       len(s.questions),
		Threshold:   PassThreshold,
		Lines:       make([]ReportLine, 0, len(s.answers)),
	}

	for i := range s.questions {
		a, ok := s.answers[i]
		if !ok {
			continue
		}
		line := lineFor(i, a)
		switch line.Outcome {
		case OutcomeCorrect:
			rep.Correct++
		case OutcomeIncorrect:
			rep.Incorrect++
		case OutcomeTimedOut:
			rep.TimedOut++
		}
		rep.Lines = append(rep.Lines, line)
	}

	if rep.Total > 0 {
		rep.ScorePercent = 100 * float64(rep.Correct) / float64(rep.Total)
	}
	rep.Passed = rep.ScorePercent >= PassThreshold
	return rep, nil
}

func lineFor(index int, a model.Answer) ReportLine {
	outcome := OutcomeIncorrect
	switch {
	case a.TimedOut:
		outcome = OutcomeTimedOut
	case a.IsCorrect:
		outcome = OutcomeCorrect
	}
	return ReportLine{
		Index:         index,
		Number:        index + 1,
		Outcome:       outcome,
		TimeSpent:     a.TimeSpent,
		QuestionText:  a.QuestionText,
		Selected:      a.Selected,
		CorrectAnswer: a.CorrectAnswer,
		Explanation:   a.Explanation,
	}
}
