package sentinel

import "errors"

// Sentinel errors for infrastructure facts. The registry store and persistence
// adapters return these (optionally wrapped) so the service layer can translate
// them into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the registry
// - ErrConflict: a uniqueness rule (pending pair, group membership) is taken
// - ErrInvalidState: entity in wrong state for requested transition
// - ErrUnavailable: persistence backend temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
