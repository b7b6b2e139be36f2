package service

import "errors"

// ErrInvalidInput marks a request the service refuses before computing.
var ErrInvalidInput = errors.New("invalid input")
