// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import "errors"

// Error classes. Every specific error below wraps exactly one of these.
var (
	// ErrValidation indicates bad caller input or a malformed corpus record.
	ErrValidation = errors.New("validation error")

	// ErrState indicates an operation was invoked in the wrong lifecycle state.
	ErrState = errors.New("state error")
)

// Validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = validationError("invalid chunk")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = validationError("chunk text cannot be empty")

	// ErrEmptyID indicates the Id field is empty.
	ErrEmptyID = validationError("chunk id cannot be empty")

	// ErrDuplicateID indicates two chunks in one corpus share an id.
	ErrDuplicateID = validationError("duplicate chunk id")

	// ErrInvalidPage indicates a negative page number.
	ErrInvalidPage = validationError("page must be a positive number")

	// ErrInvalidWordCount indicates a negative word count.
	ErrInvalidWordCount = validationError("word count cannot be negative")

	// ErrMalformedRecord indicates a corpus record could not be decoded.
	ErrMalformedRecord = validationError("malformed corpus record")

	// ErrInvalidLimit indicates a non-positive result limit.
	ErrInvalidLimit = validationError("result limit must be greater than 0")

	// ErrInvalidPolicy indicates an unknown scoring policy.
	ErrInvalidPolicy = validationError("unknown scoring policy")
)

// State errors
var (
	// ErrIndexNotBuilt indicates a query was issued before an index was built.
	ErrIndexNotBuilt = stateError("index has not been built")
)

type classifiedError struct {
	msg   string
	class error
}

func (e *classifiedError) Error() string { return e.msg }
func (e *classifiedError) Unwrap() error { return e.class }

func validationError(msg string) error {
	return &classifiedError{msg: msg, class: ErrValidation}
}

func stateError(msg string) error {
	return &classifiedError{msg: msg, class: ErrState}
}
