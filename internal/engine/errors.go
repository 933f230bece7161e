package engine

import "errors"

// Sentinel error kinds. Every leaf-package error a caller
// needs to distinguish is wrapped with one of these via fmt.Errorf("%w: %v", ...)
// so errors.Is works against the engine-level kind; the original leaf error
// is carried as text only and is not matched by errors.Is.
var (
	ErrNotFound                 = errors.New("engine: not found")
	ErrAlreadyExists            = errors.New("engine: already exists")
	ErrAlreadyPromoted          = errors.New("engine: already promoted")
	ErrInvalidArgument          = errors.New("engine: invalid argument")
	ErrBackingStore             = errors.New("engine: backing store error")
	ErrVersionControl           = errors.New("engine: version control error")
	ErrLanguageModelUnavailable = errors.New("engine: language model unavailable")
	ErrLanguageModelMalformed   = errors.New("engine: language model produced malformed output")
	ErrValidationRisk           = errors.New("engine: validation risk")
	ErrTransportFailure         = errors.New("engine: transport failure")
)
