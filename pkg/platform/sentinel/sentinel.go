package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores and adapters.
// Services translate them into pkg/domain-errors codes; callers never see them raw.
//
//   - ErrNotFound: no record for the key (scheme, application, session, tracking reference)
//   - ErrAlreadyUsed: a unique key is already taken (tracking reference reservation)
//   - ErrExpired: the record exists but its validity window has passed (sessions)
//   - ErrInvalidState: the record is in the wrong state for the mutation (submitted application)
//   - ErrConflict: a concurrent writer won an optimistic race; the caller may retry
//   - ErrUnavailable: the backing service could not be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)
