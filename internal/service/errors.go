package service

import "errors"

// ErrInvalidFilter is returned when the startsWith filter is rejected.
// The concrete reason is wrapped alongside it.
var ErrInvalidFilter = errors.New("invalid filter")
