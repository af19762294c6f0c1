package usecase

import "errors"

var (
	// ErrEmptyInput indicates a zero-length vector or text where content is required.
	ErrEmptyInput = errors.New("input is empty")
	// ErrDimensionMismatch indicates embedding vectors of different lengths.
	ErrDimensionMismatch = errors.New("embedding dimensions do not match")
	// ErrInsufficientData indicates fewer usable stored embeddings than the configured
	// minimum. Distinct from a rejection: there is nothing to reject against yet.
	ErrInsufficientData = errors.New("insufficient enrolled embeddings")
	// ErrEmptyTranscript indicates no usable tokens remained after filtering the transcript.
	ErrEmptyTranscript = errors.New("transcript contains no usable words")
	// ErrInvalidConfig indicates threshold or weight values rejected at construction.
	ErrInvalidConfig = errors.New("invalid engine configuration")
	// ErrEmailTaken indicates the registration email is already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRegistrationAlreadyComplete indicates a sample arrived for a finished enrollment.
	ErrRegistrationAlreadyComplete = errors.New("registration already complete")
)
