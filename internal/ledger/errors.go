package ledger

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAmbiguous     = errors.New("ambiguous reference")
	ErrInvalidFormat = errors.New("invalid format")
	ErrMismatch      = errors.New("pin mismatch")
	ErrInvalidInput  = errors.New("invalid input")
)
