package connections

import "errors"

var (
	// ErrInvalidOperation is returned for a self-connection or an unknown decision.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrAlreadyExists is returned when the pair already has a request in any status.
	ErrAlreadyExists = errors.New("connection request already exists")
	// ErrNotFound covers unknown ids and requests that are no longer pending.
	ErrNotFound = errors.New("connection request not found")
	// ErrForbidden is returned when someone other than the target responds.
	ErrForbidden = errors.New("not authorized to respond to this request")
	// ErrConflict is the store-level uniqueness violation for an unordered pair.
	ErrConflict = errors.New("connection request conflicts with an existing pair")
)
