/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package errcode holds the numbered error taxonomy shared by every agent component.
package errcode

import (
	"errors"
	"fmt"
	"strings"
)

// Type is error type.
type Type int32

const (
	// ValidationError is error type for input validation errors.
	ValidationError Type = iota

	// ExecuteError is error type for execution failure.
	ExecuteError Type = iota
)

// Code is the numeric error code.
type Code int32

const (
	// UnknownStatus default error code for unknown errors.
	UnknownStatus Code = iota
)

// Group is the error groups. Each domain owns the thousand codes starting at its group,
// so codes of different domains never collide.
type Group int32

const (
	// Keys error group for key management and derivation errors.
	Keys Group = 1000

	// DID error group for DID parsing and resolution errors.
	DID Group = 2000

	// Messaging error group for DIDComm message errors.
	Messaging Group = 3000

	// Protocol error group for protocol flow errors.
	Protocol Group = 4000

	// Credential error group for credential engine errors.
	Credential Group = 5000

	// Store error group for persistence errors.
	Store Group = 6000

	// Agent error group for orchestration errors.
	Agent Group = 7000

	// Backup error group for backup and recovery errors.
	Backup Group = 8000
)

// GroupOf returns the group a code belongs to.
func GroupOf(c Code) Group {
	return Group(int32(c) / 1000 * 1000) //nolint:gomnd
}

// Error is the interface for representing a coded error condition, with the nil value representing no error.
type Error interface {
	error
	// Code returns error code for this error.
	Code() Code
	// Type returns error type for this error.
	Type() Type
}

// NewValidationError returns new validation error.
func NewValidationError(code Code, err error) Error {
	return &codedError{cause: err, code: code, errType: ValidationError}
}

// NewExecuteError returns new execute error.
func NewExecuteError(code Code, err error) Error {
	return &codedError{cause: err, code: code, errType: ExecuteError}
}

// New creates a sentinel with a fixed message. Use it with fmt.Errorf("%w") to add detail.
func New(code Code, errType Type, msg string) Error {
	return &codedError{msg: msg, code: code, errType: errType}
}

type codedError struct {
	msg     string
	cause   error
	code    Code
	errType Type
}

func (c *codedError) Error() string {
	switch {
	case c.cause == nil:
		return c.msg
	case c.msg == "":
		return c.cause.Error()
	default:
		return c.msg + ": " + c.cause.Error()
	}
}

func (c *codedError) Unwrap() error {
	return c.cause
}

func (c *codedError) Code() Code {
	return c.code
}

func (c *codedError) Type() Type {
	return c.errType
}

// CodeOf returns the code of the first coded error in the err chain, or UnknownStatus.
func CodeOf(err error) Code {
	var coded Error
	if errors.As(err, &coded) {
		return coded.Code()
	}

	return UnknownStatus
}

// Wrapf adds a formatted detail to a sentinel keeping it matchable with errors.Is.
func Wrapf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// MultiError aggregates several failures under one coded error.
type MultiError struct {
	Kind   error
	Errors []error
}

// Aggregate returns nil when errs is empty, otherwise a MultiError of kind.
func Aggregate(kind error, errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	return &MultiError{Kind: kind, Errors: errs}
}

func (m *MultiError) Error() string {
	msgs := make([]string, 0, len(m.Errors))

	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("%s: [%s]", m.Kind.Error(), strings.Join(msgs, "; "))
}

// Is matches the aggregate kind or any collected failure.
func (m *MultiError) Is(target error) bool {
	if errors.Is(m.Kind, target) {
		return true
	}

	for _, err := range m.Errors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// As lets errors.As find the coded kind.
func (m *MultiError) As(target interface{}) bool {
	return errors.As(m.Kind, target)
}
