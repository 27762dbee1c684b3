package domain

import "errors"

var (
	// ErrQuestionNotFound is returned for an index outside the question list.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAlreadyAnswered is returned when a slot already holds a recorded answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrIncompleteArrangement means a matching or connecting-lines answer
	// does not cover every prompt yet.
	ErrIncompleteArrangement = errors.New("arrangement is incomplete")
	// ErrInvalidAnswer indicates the submission does not fit the question type.
	ErrInvalidAnswer = errors.New("invalid answer for question type")
	// ErrLastQuestion protects the only remaining question from deletion.
	ErrLastQuestion = errors.New("cannot delete the only question")
	// ErrNoQuestions is returned when an operation needs at least one question.
	ErrNoQuestions = errors.New("no questions")
	// ErrQuizCompleted is returned for answers submitted after the quiz ended.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrMalformedImport indicates a question file that is not a JSON array.
	ErrMalformedImport = errors.New("malformed question file")
	// ErrUnknownField is returned by SetField for a path the type does not allow.
	ErrUnknownField = errors.New("field not allowed for question type")
	// ErrInvalidSetting rejects out-of-range settings such as the question time.
	ErrInvalidSetting = errors.New("invalid setting")
)
