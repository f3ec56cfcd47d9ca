package exam

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the parent of every error caused by calling an
// operation in a state that does not allow it.
var ErrInvalidTransition = errors.New("invalid state transition")

var (
	ErrNotInProgress    = fmt.Errorf("%w: exam is not in progress", ErrInvalidTransition)
	ErrAlreadyFinished  = fmt.Errorf("%w: exam already finished", ErrInvalidTransition)
	ErrAlreadyStarted   = fmt.Errorf("%w: exam already started", ErrInvalidTransition)
	ErrAlreadyRecorded  = fmt.Errorf("%w: question already answered", ErrInvalidTransition)
	ErrQuestionMismatch = fmt.Errorf("%w: question is not the active one", ErrInvalidTransition)
	ErrNotFinished      = fmt.Errorf("%w: report requested before the exam finished", ErrInvalidTransition)
)

var (
	// ErrEmptySelection means the student submitted without picking an option
	// while the question still had time left.
	ErrEmptySelection = errors.New("no option selected")
	ErrUnknownOption  = errors.New("selected option is not part of the question")
	ErrEmptyBank      = errors.New("question bank is empty")
	ErrEmptyName      = errors.New("student name is required")
)
