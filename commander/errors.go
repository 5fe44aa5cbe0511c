// Copyright 2026 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commander

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResolution is wrapped by every [ResolutionError].
	ErrResolution = errors.New("resolution failed")

	// ErrBinding is wrapped by every [BindingError].
	ErrBinding = errors.New("binding failed")

	// ErrHook is wrapped by every [HookError].
	ErrHook = errors.New("pre-hook failed")
)

// ResolutionError is returned when a line does not name a dispatchable
// command, or when an exec template cannot be expanded.
type ResolutionError struct {
	// Command is the name being resolved, if any.
	Command string
	Msg     string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ResolutionError) Error() string {
	var parts []string
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("%q", e.Command))
	}
	return joinParts(parts, e.Msg, e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	return wrapped(ErrResolution, e.Err)
}

// BindingError is returned when the tokens of a line cannot be bound to the
// arguments of the resolved command.
type BindingError struct {
	Command string

	// Arg is the argument at fault, if any.
	Arg string
	Msg string
	Err error
}

func (e *BindingError) Error() string {
	parts := []string{fmt.Sprintf("%q", e.Command)}
	if e.Arg != "" {
		parts = append(parts, fmt.Sprintf("argument %q", e.Arg))
	}
	return joinParts(parts, e.Msg, e.Err)
}

func (e *BindingError) Unwrap() []error {
	return wrapped(ErrBinding, e.Err)
}

// HookError is returned when a pre-hook could not be called or failed to
// answer, including when it ran past its deadline. A hook that answers with a
// message is not an error; see [Result.HookError].
type HookError struct {
	Command string
	Ref     string
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%q: pre-hook %q: %s", e.Command, e.Ref, e.Err)
}

func (e *HookError) Unwrap() []error {
	return wrapped(ErrHook, e.Err)
}

func joinParts(parts []string, msg string, err error) string {
	if msg != "" {
		parts = append(parts, msg)
	}
	if err != nil {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, ": ")
}

func wrapped(sentinel, err error) []error {
	if err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, err}
}
