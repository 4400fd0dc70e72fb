// Package errors provides structured error types for the allocator.
//
// Errors are categorized by Phase (which allocator operation was in
// progress) and Kind (the error category). The Error type carries the
// offending size/align/pointer values and an optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAlloc, errors.KindOutOfHostMemory).
//		Detail("grow by %d pages failed", delta).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TooLarge(size, cap)
//	err := errors.UnsupportedAlignment(align)
//
// All errors implement the standard error interface and support errors.Is.
package errors
