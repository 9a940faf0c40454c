// Package failure defines the error kinds a paper can fail with while it moves
// through the pipeline. Callers match them with errors.Is against the sentinel
// values, or read the kind with KindOf.
package failure

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknown    Kind = "unknown"
	KindNotFound   Kind = "not_found"
	KindService    Kind = "service_error"
	KindIO         Kind = "io_error"
	KindGeneration Kind = "generation_error"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrService    = errors.New("service error")
	ErrIO         = errors.New("io error")
	ErrGeneration = errors.New("generation error")
)

// Error carries a Kind, the operation that failed and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) (and friends) match by kind.
func (e *Error) Is(target error) bool {
	s := sentinel(e.Kind)
	return s != nil && target == s
}

func sentinel(k Kind) error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindService:
		return ErrService
	case KindIO:
		return ErrIO
	case KindGeneration:
		return ErrGeneration
	default:
		return nil
	}
}

func newError(k Kind, op string, err error) error {
	if err == nil {
		err = sentinel(k)
	}
	return &Error{Kind: k, Op: op, Err: err}
}

func NotFound(op string, err error) error   { return newError(KindNotFound, op, err) }
func Service(op string, err error) error    { return newError(KindService, op, err) }
func IO(op string, err error) error         { return newError(KindIO, op, err) }
func Generation(op string, err error) error { return newError(KindGeneration, op, err) }

// Servicef is a shorthand for Service(op, fmt.Errorf(format, args...)).
func Servicef(op, format string, args ...any) error {
	return Service(op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
