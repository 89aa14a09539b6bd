package model

import (
	"errors"
	"fmt"
	"strings"
)

// Input errors are detected before a model is built; they are never reported as infeasibility.
var (
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknownReference  = errors.New("unknown reference")
	ErrMalformed         = errors.New("malformed record")
	ErrNoEligibleFaculty = errors.New("no eligible faculty")
	ErrEmptyDomain       = errors.New("empty domain")
	// ErrContractViolation signals a solver result that breaks a hard constraint.
	ErrContractViolation = errors.New("solver contract violation")
)

type DuplicateKeyError struct {
	Collection string
	Key        string
}

func (err DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q in %s", err.Key, err.Collection)
}

func (err DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

type UnknownReferenceError struct {
	Collection string
	Record     string
	Field      string
	Key        string
}

func (err UnknownReferenceError) Error() string {
	return fmt.Sprintf("%s %q references unknown %s %q", err.Collection, err.Record, err.Field, err.Key)
}

func (err UnknownReferenceError) Unwrap() error { return ErrUnknownReference }

type MalformedRecordError struct {
	Collection string
	Record     string
	Reason     string
}

func (err MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s %q: %s", err.Collection, err.Record, err.Reason)
}

func (err MalformedRecordError) Unwrap() error { return ErrMalformed }

type NoEligibleFacultyError struct {
	Section SectionKey
	Pool    []string
	Pinned  []string
}

func (err NoEligibleFacultyError) Error() string {
	return fmt.Sprintf("section %v has no eligible faculty: pool %v, pinned %v", err.Section, err.Pool, err.Pinned)
}

func (err NoEligibleFacultyError) Unwrap() error { return ErrNoEligibleFaculty }

type EmptyDomainError struct {
	Section  SectionKey
	Variable string
	Reason   string
}

func (err EmptyDomainError) Error() string {
	return fmt.Sprintf("section %v has an empty %s domain: %s", err.Section, err.Variable, err.Reason)
}

func (err EmptyDomainError) Unwrap() error { return ErrEmptyDomain }

// ContractViolationError lists every hard constraint a decoded schedule breaks.
type ContractViolationError struct {
	Violations []string
}

func (err ContractViolationError) Error() string {
	return fmt.Sprintf("%v:\n\t%s", ErrContractViolation, strings.Join(err.Violations, "\n\t"))
}

func (err ContractViolationError) Unwrap() error { return ErrContractViolation }
