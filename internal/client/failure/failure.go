// Package failure is the result type of client-side mutations and fetches.
//
// Operations return nil on success and an *Error otherwise. The caller
// decides how to surface it; nothing in the data layer prints notices.
package failure

import (
	"errors"

	"github.com/dmitrijs2005/homeshare/internal/client/client"
)

// Kind classifies a failure by the layer it came from.
type Kind string

const (
	KindAuth     Kind = "auth"
	KindFetch    Kind = "fetch"
	KindMutation Kind = "mutation"
)

// ErrNotAuthenticated is the cause of operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("User not authenticated")

// Error is a failed operation. Op names the operation ("sign in",
// "properties", "mark as read").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return string(e.Kind) + " " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the provider's message for the failure, or fallback when
// there is none.
func (e *Error) Message(fallback string) string {
	if e == nil || e.Err == nil {
		return fallback
	}
	if m := client.Message(e.Err); m != "" {
		return m
	}
	if errors.Is(e.Err, ErrNotAuthenticated) {
		return ErrNotAuthenticated.Error()
	}
	return fallback
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Auth(op string, err error) *Error     { return New(KindAuth, op, err) }
func Fetch(op string, err error) *Error    { return New(KindFetch, op, err) }
func Mutation(op string, err error) *Error { return New(KindMutation, op, err) }

// All returns every *Error found in err, unpacking errors.Join trees.
func All(err error) []*Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) && fe == err {
		return []*Error{fe}
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*Error
		for _, e := range j.Unwrap() {
			out = append(out, All(e)...)
		}
		return out
	}
	if errors.As(err, &fe) {
		return []*Error{fe}
	}
	return nil
}
