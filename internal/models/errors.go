package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so the transport layer can map them
// to response codes without matching on message text.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInvalidTransition
	KindPreconditionRequired
	KindUpstreamFailure
	KindConsistencyRace
)

// Error is a kinded error produced by the service and its collaborators.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// NotFoundf reports a missing task, parent, or upstream entity.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransitionf reports a parent/child rule violation.
func InvalidTransitionf(format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf(format, args...)}
}

// PreconditionRequiredf reports a mutation refused pending explicit confirmation.
func PreconditionRequiredf(format string, args ...any) error {
	return &Error{Kind: KindPreconditionRequired, Msg: fmt.Sprintf(format, args...)}
}

// UpstreamFailuref reports a non-404 failure from an external collaborator.
func UpstreamFailuref(format string, args ...any) error {
	return &Error{Kind: KindUpstreamFailure, Msg: fmt.Sprintf(format, args...)}
}

// ConsistencyRacef reports a detected count mismatch between a read and the
// write that followed it. The documents involved may be partially mutated.
func ConsistencyRacef(format string, args ...any) error {
	return &Error{Kind: KindConsistencyRace, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or zero for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
