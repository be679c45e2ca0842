package service

import "errors"

// ErrPrincipalNotFound reports that no candidate domain yielded a match for
// the requested identity. Recoverable: the caller decides whether an unknown
// principal is a problem.
var ErrPrincipalNotFound = errors.New("principal not found")
