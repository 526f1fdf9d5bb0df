package client

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("too many requests")
	ErrInternal        = errors.New("server error")
	ErrNoSession       = errors.New("no session")
)

// RemoteError is a failed call. It matches one of the sentinel errors above
// with errors.Is and keeps the message the server sent.
type RemoteError struct {
	Code    codes.Code
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Message returns the server's message for err, or "" when err is not a
// RemoteError.
func Message(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}

	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated:
		sentinel = ErrUnauthorized
	case codes.PermissionDenied:
		sentinel = ErrForbidden
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = ErrUnavailable
	case codes.AlreadyExists:
		sentinel = ErrAlreadyExists
	case codes.InvalidArgument:
		sentinel = ErrInvalidArgument
	case codes.NotFound:
		sentinel = ErrNotFound
	case codes.ResourceExhausted:
		sentinel = ErrRateLimited
	case codes.Canceled:
		sentinel = context.Canceled
	default:
		sentinel = ErrInternal
	}
	return &RemoteError{Code: st.Code(), Message: st.Message(), Err: sentinel}
}
