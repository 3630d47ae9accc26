package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrInvalidState   = errors.New("election is not in a valid state for this operation")
	ErrDuplicateVote  = errors.New("user has already voted in this election")
	ErrForbidden      = errors.New("forbidden")
	ErrInfrastructure = errors.New("infrastructure failure")
)

// Entity kinds reported by NotFoundError.
const (
	EntityElection = "election"
	EntityOption   = "option"
	EntityVote     = "vote"
	EntityUser     = "user"
)

// Field names reported by ValidationError.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStartDate   = "startDate"
	FieldEndDate     = "endDate"
	FieldOptions     = "options"
	FieldUserID      = "userId"
	FieldElectionID  = "electionId"
	FieldOptionID    = "optionId"
	FieldStatus      = "status"
)

// ValidationError carries every violated field, not only the first one.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for field unless one is already present.
func (e *ValidationError) Add(field string, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns nil when no field failed so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFound(entity string, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: strings.TrimSpace(id)}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " " + ErrNotFound.Error()
	}
	return fmt.Sprintf("%s %q %s", e.Entity, e.ID, ErrNotFound.Error())
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidStateError reports the derived status that blocked the operation.
type InvalidStateError struct {
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot vote in %s election", e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

type DuplicateVoteError struct {
	UserID     string
	ElectionID string
}

func (e *DuplicateVoteError) Error() string {
	return ErrDuplicateVote.Error()
}

func (e *DuplicateVoteError) Is(target error) bool {
	return target == ErrDuplicateVote
}

type ForbiddenError struct {
	ActorID string
	Action  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s: %s requires admin role", ErrForbidden.Error(), e.Action)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// InfrastructureError wraps an unexpected collaborator failure unchanged.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrInfrastructure.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

func (e *InfrastructureError) Is(target error) bool {
	return target == ErrInfrastructure
}

// IsDomain reports whether err already belongs to the election taxonomy.
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrDuplicateVote) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInfrastructure)
}
