package session

import "errors"

// Sentinel errors for the session service layer.
var (
	ErrRegistryClosed = errors.New("session registry is closed")
)
