// team/service/errors.go
package service

import (
	"errors"
	"fmt"
)

// Kind classifies service errors so the transport layer can tell "your request is wrong"
// apart from "the system is unhealthy".
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindCapacityExceeded
	KindInvalidState
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindInvalidState:
		return "invalid_state"
	case KindInfrastructure:
		return "infrastructure_failure"
	default:
		return "unknown"
	}
}

// Error is a classified service error. Op and Err are set for infrastructure failures.
type Error struct {
	Kind   Kind
	Reason string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Op, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches infrastructure errors against ErrInfrastructure regardless of their cause.
func (e *Error) Is(target error) bool {
	return target == ErrInfrastructure && e.Kind == KindInfrastructure
}

var (
	ErrPlayerNotFound    = &Error{Kind: KindNotFound, Reason: "player not found"}
	ErrTeamNotFound      = &Error{Kind: KindNotFound, Reason: "team not found"}
	ErrTeamNameTaken     = &Error{Kind: KindConflict, Reason: "team name already exists"}
	ErrPlayerNameTaken   = &Error{Kind: KindConflict, Reason: "player name already exists"}
	ErrAlreadyInTeam     = &Error{Kind: KindConflict, Reason: "player already has a team"}
	ErrTeamFull          = &Error{Kind: KindCapacityExceeded, Reason: "team is already full"}
	ErrNotInTeam         = &Error{Kind: KindInvalidState, Reason: "player is not in a team"}
	ErrNotEnoughCoins    = &Error{Kind: KindInvalidState, Reason: "player does not have enough coins"}
	ErrInfrastructure    = &Error{Kind: KindInfrastructure, Reason: "infrastructure failure"}
	ErrCryptoUnavailable = &Error{Kind: KindInfrastructure, Reason: "secure token primitives unavailable"}
)

// infra wraps a store or lock failure for the given operation.
func infra(op string, err error) error {
	var se *Error
	if errors.As(err, &se) && se.Kind == KindInfrastructure {
		return err
	}
	return &Error{Kind: KindInfrastructure, Reason: "infrastructure failure", Op: op, Err: err}
}

// KindOf returns the classification of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the caller may retry the same request later.
func IsRetryable(err error) bool {
	return KindOf(err) == KindInfrastructure
}
