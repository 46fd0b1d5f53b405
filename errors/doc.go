// Package errors provides structured error types for the host and boundary
// layers of the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes context: field path, Go type, guest export and cause chain.
//
// Failures that happen while decoding wire bytes are not reported here; they
// are fressian.Error values, which survive the boundary as ordinary values.
// This package covers what cannot be delivered that way: traps, out of bounds
// pointers, allocation failures and contract violations.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBoundary, errors.KindOutOfBounds).
//		Export("echo").
//		Detail("delivered length %d exceeds memory", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Trap("echo", cause)
//	err := errors.OutOfBounds(errors.PhaseBoundary, ptr, length)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
