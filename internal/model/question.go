package model

// Question is a single multiple-choice record from the question bank.
type Question struct {
	Question    string   `json:"question" yaml:"question"`
	Options     []string `json:"options" yaml:"options"`
	Answer      string   `json:"answer" yaml:"answer"`
	Explanation string   `json:"explanation" yaml:"explanation"`
}

// HasOption reports whether opt is one of the question's options (exact match).
func (q Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// QuestionView is what the student sees: no answer key, no explanation.
type QuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// View strips the answer key from q.
func (q Question) View() QuestionView {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return QuestionView{Question: q.Question, Options: opts}
}
