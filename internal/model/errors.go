package model

import (
	"errors"
	"fmt"
)

// ServerError is returned when the prediction service answers with a status
// other than 200.
type ServerError struct {
	Status  int
	Message string // may be empty
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prediction service returned status %d", e.Status)
	}
	return fmt.Sprintf("prediction service returned status %d: %s", e.Status, e.Message)
}

// ConnectivityError is returned when no usable response was received.
// Error returns the generic connectivity text; the cause is only reachable
// via Unwrap.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string { return MsgConnectivity }

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ErrNotFound is returned by history stores for an unknown submission ID.
var ErrNotFound = errors.New("submission not found")
