package usecase

import "errors"

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrConflict          = errors.New("shortlist was modified concurrently")
	ErrInternal          = errors.New("internal error")
)
