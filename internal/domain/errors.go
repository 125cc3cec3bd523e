package domain

import "errors"

var (
	// ErrMalformedContent is returned when content violates the schema or its dependency rules.
	ErrMalformedContent = errors.New("malformed content")
	// ErrUnknownTerm is returned when a term reference has no glossary entry.
	ErrUnknownTerm = errors.New("unknown glossary term")
	// ErrInvalidTransition is returned when a session is driven out of order.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvalidAnswer is returned when an answer is neither yes nor no.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrUnknownCategory indicates a category ID not present in the content.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownRule indicates a rule ID not present in the content.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrContentNotFound indicates no content is published under the requested edition.
	ErrContentNotFound = errors.New("content edition not found")
	// ErrSessionNotFound is returned when a survey session does not exist.
	ErrSessionNotFound = errors.New("survey session not found")
	// ErrRecordNotFound is returned when no answer record was stored for a session.
	ErrRecordNotFound = errors.New("answer record not found")
	// ErrRecordMismatch is returned when a stored rule result does not answer
	// exactly the questions of the rule in the current content.
	ErrRecordMismatch = errors.New("answer record does not match content")
)
