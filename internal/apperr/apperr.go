package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so the transport layer can relay the right
// error frame to the originating client.
type Kind string

const (
	KindUnauthenticated   Kind = "unauthenticated"
	KindNotFound          Kind = "not_found"
	KindPersistenceFailed Kind = "persistence_failed"
	KindPartialDelivery   Kind = "partial_delivery"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a typed error. The wrapped cause may be nil.
func E(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Unauthenticated(msg string) *Error {
	return E(KindUnauthenticated, msg, nil)
}

func NotFound(msg string) *Error {
	return E(KindNotFound, msg, nil)
}

func PersistenceFailed(msg string, err error) *Error {
	return E(KindPersistenceFailed, msg, err)
}

// KindOf extracts the Kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// PartialDeliveryError reports online recipients that could not be pushed.
// The underlying operation already persisted and is otherwise successful.
type PartialDeliveryError struct {
	FailedConns []string
}

func (e *PartialDeliveryError) Error() string {
	return fmt.Sprintf("%s: %d push(es) failed: %s",
		KindPartialDelivery, len(e.FailedConns), strings.Join(e.FailedConns, ","))
}
