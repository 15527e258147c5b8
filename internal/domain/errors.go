package domain

import "errors"

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrInteractionNotFound = errors.New("interaction not found")
	ErrExchangeNotFound    = errors.New("exchange not found")

	ErrInteractionNotStarted = errors.New("interaction not started")
	ErrInteractionCompleted  = errors.New("interaction already completed")

	ErrExchangeNotStarted   = errors.New("exchange not started")
	ErrExchangeNotCompleted = errors.New("exchange not completed")
	ErrExchangeDismissed    = errors.New("exchange already dismissed")

	ErrContentTooLong = errors.New("message content too long")
)
