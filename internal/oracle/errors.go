package oracle

import (
	"errors"
	"fmt"
)

// ErrContract identifies responses that break the request/response contract.
var ErrContract = errors.New("oracle contract violation")

// ContractError describes which part of a response was rejected.
type ContractError struct {
	Field  string // e.g. "items[3].cabinet"
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrContract, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrContract) match any *ContractError.
func (e *ContractError) Is(target error) bool {
	return target == ErrContract
}

func contractErrorf(field, format string, args ...any) error {
	return &ContractError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
