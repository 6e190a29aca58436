package sat

import "github.com/pkg/errors"

// Kind classifies an error by the severity hierarchy of spec.md §7, in
// descending order of severity. Only Interrupted and Timeout are recovered;
// every other kind leaves the Solver instance unusable.
type Kind int

const (
	// KindParser marks a malformed-DIMACS error. The instance remains usable
	// only if parsing was the very first operation performed on it.
	KindParser Kind = iota
	// KindResourceExhaustion marks an out-of-memory condition in the arena
	// or a heap. Fatal: the instance becomes unusable.
	KindResourceExhaustion
	// KindContractViolation marks a caller error such as Val() outside a SAT
	// result, or Reduce() called with a non-empty decision level. Fatal.
	KindContractViolation
	// KindInterrupted marks a cooperative-termination exit. Soft: Solve
	// returns StatusUnknown and the instance remains usable.
	KindInterrupted
	// KindTimeout is handled identically to KindInterrupted.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindParser:
		return "parser error"
	case KindResourceExhaustion:
		return "resource exhaustion"
	case KindContractViolation:
		return "contract violation"
	case KindInterrupted:
		return "interrupted"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown error kind"
	}
}

// Error wraps an underlying cause with its Kind, so callers can use
// errors.As to branch on severity without string matching.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.cause.Error() }

func (e *Error) Unwrap() error { return e.cause }

// Recoverable reports whether the solver instance remains usable after this
// error (per spec.md §7's recovery policy): only Interrupted and Timeout
// are recovered.
func (e *Error) Recoverable() bool {
	return e.Kind == KindInterrupted || e.Kind == KindTimeout
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

func wrapError(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, cause: errors.Wrap(cause, msg)}
}

// ErrContractViolation is a sentinel matched by errors.Is; it is the cause
// wrapped in the *Error that Val and Failed panic with when called without
// the matching result. Nothing in this package recovers those panics.
var ErrContractViolation = errors.New("contract violation")
