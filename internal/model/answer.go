package model

// NoAnswerSentinel replaces the selection of a question that ran out of time.
const NoAnswerSentinel = "NO ANSWER (time expired)"

// Answer is the immutable record of one completed question.
type Answer struct {
	Selected      string  `json:"selected"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   string  `json:"explanation"`
	TimeSpent     float64 `json:"time_spent"` // seconds
	IsCorrect     bool    `json:"is_correct"`
	TimedOut      bool    `json:"timed_out"`
	QuestionText  string  `json:"question_text"`
}

// SubmitAnswerRequest is the payload for answering the active question.
// Option may be empty; the exam decides whether that is a timeout or a warning.
type SubmitAnswerRequest struct {
	QuestionIndex *int   `json:"question_index" form:"question_index" binding:"required,min=0"`
	Option        string `json:"option" form:"option" binding:"max=1000"`
}
