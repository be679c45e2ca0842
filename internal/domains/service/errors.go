package service

import "errors"

var (
	// ErrDomainNotFound means no registry hit and the directory query for
	// the requested domain failed. Recoverable: the caller gets a failed
	// resolution, registry state is untouched.
	ErrDomainNotFound = errors.New("domain not found")

	// ErrDomainAccess means the anchor domain of a forest registration
	// could not be queried. Fatal for the registration call: nothing
	// downstream can succeed without the anchor.
	ErrDomainAccess = errors.New("domain access failed")
)
