package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Registries and directory adapters
// return these (optionally wrapped) so resolver services can translate them
// into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in a registry index
// - ErrConflict: record would collide with an existing one
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: directory or backing store temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
