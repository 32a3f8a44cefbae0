package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credential")
	ErrMalformedFrame     = fmt.Errorf("malformed frame")
	ErrEmptyMessage       = fmt.Errorf("empty message")
	ErrStoreFailure       = fmt.Errorf("message not stored")
	ErrSlowConsumer       = fmt.Errorf("recipient buffer full")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrOnlyCensoredFiles  = fmt.Errorf("censored directory contains directories")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)

// wireReasons are the sentinels whose message is safe to expose verbatim
// in an outbound {"error": ...} frame.
var wireReasons = []error{
	ErrInvalidCredentials,
	ErrMalformedFrame,
	ErrEmptyMessage,
	ErrStoreFailure,
	ErrUserAlreadyExists,
	ErrInvalidPassword,
}

// Reason maps an error chain to the reason string exposed to clients.
// Wrapped internal detail (store paths, badger errors) is never leaked.
func Reason(err error) string {
	for _, sentinel := range wireReasons {
		if stderrors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}
