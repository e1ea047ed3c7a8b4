package domain

import "errors"

var (
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registration reuses an email address.
	ErrEmailTaken = errors.New("email already registered")
	// ErrProgressNotFound is returned when a ledger row is missing for a user.
	ErrProgressNotFound = errors.New("progress ledger not found")
	// ErrNegativeDelta rejects progress deltas below zero before they reach storage.
	ErrNegativeDelta = errors.New("progress delta must not be negative")
	// ErrNotOwner is returned when a caller operates on a ledger they do not own.
	ErrNotOwner = errors.New("caller does not own this ledger")
	// ErrUnknownMetric indicates an unsupported ranking metric name.
	ErrUnknownMetric = errors.New("unknown ranking metric")
	// ErrUnknownField indicates an unsupported ledger field name.
	ErrUnknownField = errors.New("unknown progress field")
	// ErrPostNotFound is returned when a referenced group post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrNotQuiz is returned when an answer targets a non-quiz post.
	ErrNotQuiz = errors.New("post is not a quiz")
	// ErrInvalidOption indicates an option index outside the quiz options.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrAlreadyAnswered is returned on a second submission for the same quiz.
	ErrAlreadyAnswered = errors.New("quiz already answered")
	// ErrSelfAnswer is returned when a quiz author answers their own quiz.
	ErrSelfAnswer = errors.New("author may not answer own quiz")
	// ErrInvalidContent indicates a post content payload that fails validation.
	ErrInvalidContent = errors.New("invalid post content")
)
