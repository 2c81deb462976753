// Package errors defines error types for the empire search client.
//
// This package provides structured error types for the failure scenarios of
// a search session: connecting, emitting, parsing responses and reading
// input. All error types support error unwrapping and can be checked using
// errors.Is, errors.As, and errors.AsType.
package errors
