package loader

import "fmt"

// ErrorKind classifies loader failures. Kinds satisfy the error interface so
// callers can match a structured *Error against a kind with errors.Is:
//
//	if errors.Is(err, ErrIndexOutOfRange) { ... }
type ErrorKind int

// Error kinds, one per failure class.
const (
	// ErrMalformedContainer indicates a broken GLB envelope (bad magic,
	// length disagreement, or chunk ordering/type violations).
	ErrMalformedContainer ErrorKind = iota + 1

	// ErrInvalidJSON indicates malformed JSON text.
	ErrInvalidJSON

	// ErrUnsupportedVersion indicates a missing or non-2.0 asset version.
	ErrUnsupportedVersion

	// ErrIndexOutOfRange indicates an index reference outside the bounds of
	// its target array.
	ErrIndexOutOfRange

	// ErrCyclicNodeGraph indicates that the node relation graph is not a
	// forest (a cycle, a node with multiple parents, or a node reused
	// across scenes).
	ErrCyclicNodeGraph

	// ErrInvalidAccessorLayout indicates an accessor/bufferView offset,
	// stride, or bounds violation.
	ErrInvalidAccessorLayout

	// ErrUnsupportedExtension indicates a required extension that is not in
	// the implemented set.
	ErrUnsupportedExtension

	// ErrBufferUnavailable indicates that a buffer's bytes could not be
	// supplied at the declared length.
	ErrBufferUnavailable

	// ErrTypeMismatch indicates a typed view request whose element shape
	// does not match the accessor.
	ErrTypeMismatch
)

// Error satisfies the error interface so that kinds work as errors.Is targets.
func (k ErrorKind) Error() string {
	switch k {
	case ErrMalformedContainer:
		return "malformed container"
	case ErrInvalidJSON:
		return "invalid JSON"
	case ErrUnsupportedVersion:
		return "unsupported version"
	case ErrIndexOutOfRange:
		return "index out of range"
	case ErrCyclicNodeGraph:
		return "cyclic node graph"
	case ErrInvalidAccessorLayout:
		return "invalid accessor layout"
	case ErrUnsupportedExtension:
		return "unsupported extension"
	case ErrBufferUnavailable:
		return "buffer unavailable"
	case ErrTypeMismatch:
		return "type mismatch"
	default:
		return "unknown error"
	}
}

// Error is the structured failure result surfaced to callers. It identifies
// the failure kind and, where applicable, the offending entity kind and index.
// Validation is fail-fast: the first Error encountered is returned and the
// document is never partially usable.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Entity is the offending entity kind (e.g. "node.children", "accessor"),
	// empty when not applicable.
	Entity string

	// Index is the offending entity index, -1 when not applicable.
	Index int

	// Name carries an extension name or URI when relevant.
	Name string

	// Offset is the byte offset into the JSON text for ErrInvalidJSON, or 0
	// when unavailable.
	Offset int64

	// msg is the human-readable detail.
	msg string

	// err is the wrapped cause, if any.
	err error
}

// newError constructs a structured error with no entity context.
func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Index: -1, msg: msg}
}

// newEntityError constructs a structured error naming the offending entity
// kind and index.
func newEntityError(kind ErrorKind, entity string, index int, msg string) *Error {
	return &Error{Kind: kind, Entity: entity, Index: index, msg: msg}
}

func (e *Error) Error() string {
	s := "gltf: " + e.Kind.Error()
	if e.Entity != "" {
		if e.Index >= 0 {
			s += fmt.Sprintf(": %s %d", e.Entity, e.Index)
		} else {
			s += ": " + e.Entity
		}
	}
	if e.Name != "" {
		s += fmt.Sprintf(" (%s)", e.Name)
	}
	if e.msg != "" {
		s += ": " + e.msg
	}
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// Is matches e against an ErrorKind target, enabling errors.Is(err, ErrKind).
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}
