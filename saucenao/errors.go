package saucenao

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters - caller-supplied value failed validation before any I/O.
	ErrInvalidParameters = errors.New("invalid search parameters")
	// ErrInvalidParse - malformed URL or a numeric field that could not be parsed.
	ErrInvalidParse = errors.New("parse failed")
	// ErrInvalidFile - local image could not be read.
	ErrInvalidFile = errors.New("cannot read image file")
	// ErrInvalidResponse - response body could not be decoded as the expected structure.
	ErrInvalidResponse = errors.New("malformed response body")
	// ErrRequestFailed - the transport layer itself failed.
	ErrRequestFailed = errors.New("request failed")
)

// APIError is a failure reported by SauceNAO itself: the service was
// reachable but answered with a negative status code. Code and Message
// are passed through verbatim.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("saucenao: status %d: %s", e.Code, e.Message)
}
