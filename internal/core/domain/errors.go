package domain

import "errors"

// ErrTaskNotFound covers both a task that does not exist and a task owned by
// another user. Collapsing the two keeps task existence from leaking across
// accounts; every lookup filters by owner, so the distinction never surfaces.
var ErrTaskNotFound = errors.New("task not found")

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("username already taken")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidToken = errors.New("invalid token")
var ErrInvalidPagination = errors.New("page and limit must be positive")

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}
