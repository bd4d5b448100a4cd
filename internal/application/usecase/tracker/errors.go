package tracker

import "errors"

// Management-operation errors, surfaced synchronously to the caller.
var (
	ErrDuplicateKey    = errors.New("ticker already exists")
	ErrNotFound        = errors.New("not found")
	ErrUnknownExchange = errors.New("unknown exchange")
	ErrCycle           = errors.New("formula reference cycle")
)
