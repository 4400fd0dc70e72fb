package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which allocator operation was in progress when the error
// occurred.
type Phase string

const (
	PhaseInit    Phase = "init"    // MetaPage lazy initialization
	PhaseAlloc   Phase = "alloc"   // alloc() / small_alloc / big_alloc
	PhaseDealloc Phase = "dealloc" // dealloc() / small_dealloc / big_dealloc
	PhaseGrow    Phase = "grow"    // host-heap growth
)

// Kind categorizes the error.
type Kind string

const (
	// KindTooLarge: requested size+alignment rounds above the big-alloc cap.
	KindTooLarge Kind = "too_large"
	// KindUnsupportedAlignment: alignment > 1<<MAX_SC, or not a power of two.
	KindUnsupportedAlignment Kind = "unsupported_alignment"
	// KindOutOfHostMemory: host-heap grow() failed.
	KindOutOfHostMemory Kind = "out_of_host_memory"
	// KindStackOverflow: a free-MiniPage stack was full at push time.
	// Recovered locally; never actually surfaced to a caller, but retained
	// so debug instrumentation can record the event.
	KindStackOverflow Kind = "stack_overflow"
	// KindCorruptHeader: header sentinel/size-class out of range on dealloc.
	// Treated as fatal by the facade: Allocator.Dealloc panics with it.
	KindCorruptHeader Kind = "corrupt_header"
)

// Error is the structured error type used throughout the allocator.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Size   uint32
	Align  uint32
	Ptr    uint32
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error's Phase and Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Size sets the requested size.
func (b *Builder) Size(n uint32) *Builder {
	b.err.Size = n
	return b
}

// Align sets the requested alignment.
func (b *Builder) Align(n uint32) *Builder {
	b.err.Align = n
	return b
}

// Ptr sets the offending pointer (byte offset from base).
func (b *Builder) Ptr(p uint32) *Builder {
	b.err.Ptr = p
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common patterns, one per Kind.

// TooLarge creates a too-large error: size rounds above the big-alloc cap.
func TooLarge(size, capBytes uint32) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindTooLarge,
		Size:   size,
		Detail: fmt.Sprintf("size %d exceeds big-allocation cap %d", size, capBytes),
	}
}

// UnsupportedAlignment creates an unsupported-alignment error.
func UnsupportedAlignment(align uint32) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindUnsupportedAlignment,
		Align:  align,
		Detail: fmt.Sprintf("alignment %d is not a supported power of two", align),
	}
}

// OutOfHostMemory creates an out-of-host-memory error.
func OutOfHostMemory(phase Phase, deltaPages uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfHostMemory,
		Detail: fmt.Sprintf("host heap grow by %d pages failed", deltaPages),
		Cause:  cause,
	}
}

// StackOverflow creates a stack-overflow error. The allocator never returns
// it to a caller; a full free-MiniPage stack is only logged.
func StackOverflow(sizeClass uint32) *Error {
	return &Error{
		Phase:  PhaseDealloc,
		Kind:   KindStackOverflow,
		Detail: fmt.Sprintf("free-MiniPage stack for size class %d is full", sizeClass),
	}
}

// CorruptHeader creates a corrupt-header error for the header at offset ptr.
// Allocator.Dealloc panics with it.
func CorruptHeader(ptr uint32, sizeClass uint8) *Error {
	return &Error{
		Phase:  PhaseDealloc,
		Kind:   KindCorruptHeader,
		Ptr:    ptr,
		Detail: fmt.Sprintf("header at offset %d has invalid size class %d", ptr, sizeClass),
	}
}
