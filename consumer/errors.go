// Copyright 2024 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package consumer

import "fmt"

// MalformedInputError is returned when the data read from the stream cannot
// be a valid encoding of whatever the StateProcessor expected: an unknown
// prestate tag at resumption, or a VerifyEndState that rejects the final
// state. It is a data fault, not a programming error — the consumer becomes
// unusable but the caller should not treat it as a bug in its own code.
type MalformedInputError struct {
	Reason string
	err    error
}

// NewMalformedInputError creates a MalformedInputError with the given
// reason.
func NewMalformedInputError(reason string) *MalformedInputError {
	return &MalformedInputError{Reason: reason}
}

// NewMalformedInputErrorWithErr wraps err as a MalformedInputError, unless
// it already is one.
func NewMalformedInputErrorWithErr(err error) *MalformedInputError {
	if e, ok := err.(*MalformedInputError); ok {
		return e
	}
	return &MalformedInputError{Reason: err.Error(), err: err}
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

// Unwrap ... for errors pkg
func (e *MalformedInputError) Unwrap() error { return e.err }

// PreconditionViolationError is returned when a caller violates a
// precondition the window checks before repositioning itself: calling FastForwardTo/SkipTo with a begin behind the current position, or
// with an end behind begin. These are programming errors in the caller, not
// data faults.
type PreconditionViolationError struct {
	Reason string
}

// NewPreconditionViolationError creates a PreconditionViolationError with
// the given reason.
func NewPreconditionViolationError(reason string) *PreconditionViolationError {
	return &PreconditionViolationError{Reason: reason}
}

func (e *PreconditionViolationError) Error() string {
	return fmt.Sprintf("precondition violation: %s", e.Reason)
}
