package domain

import "errors"

// ErrNoCandidateStrikes is returned when a selection is attempted with an
// empty candidate list. Unlike an hour with no listed markets (which the
// simulator soft-skips), this means the caller handed over nothing to pick
// from and is a hard error.
var ErrNoCandidateStrikes = errors.New("no candidate strikes to select from")

// ErrConfiguration marks an invalid simulation configuration. Raised eagerly
// at construction, never mid-run.
var ErrConfiguration = errors.New("invalid configuration")
