/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package protocol

import "fmt"

// Common state names.
const (
	StateNameStart      = "start"
	StateNameAbandoning = "abandoning"
	StateNameDone       = "done"
)

// Transitions maps a state name to the states it may move to.
type Transitions map[string][]string

// CanTransitionTo reports whether next may follow current. An empty current is start.
func (t Transitions) CanTransitionTo(current, next string) bool {
	if current == "" {
		current = StateNameStart
	}

	for _, n := range t[current] {
		if n == next {
			return true
		}
	}

	return false
}

// Check returns ErrInvalidStateTransition when next may not follow current.
func (t Transitions) Check(current, next string) error {
	if !t.CanTransitionTo(current, next) {
		if current == "" {
			current = StateNameStart
		}

		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, current, next)
	}

	return nil
}
