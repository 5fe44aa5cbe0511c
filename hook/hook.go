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

// Package hook defines the pre-hook capability that a command scope (usually
// a script engine session) exposes to the dispatcher.
//
// A hook receives the bound command and returns a string. The empty string
// means the hook has fully handled the command and no task should be emitted.
// Any other string is reported back to the operator as an error message.
package hook

import (
	"context"
	"encoding/json"
)

// Request is the input to a hook call.
type Request struct {
	// AgentID identifies the agent the line was typed for.
	AgentID string `json:"agent_id"`

	// Ref is the hook name declared by the command.
	Ref string `json:"ref,omitempty"`

	// Line is the raw operator input.
	Line string `json:"line"`

	// Task is the JSON form of the bound task.
	Task json.RawMessage `json:"task"`

	// Args are the raw argument tokens, after the command and subcommand.
	Args []string `json:"args"`
}

// Hook is the capability invoked for commands that require a pre-hook.
// Implementations must honor cancellation of ctx.
type Hook interface {
	Call(ctx context.Context, req *Request) (string, error)
}

// Func adapts an ordinary function to a [Hook].
type Func func(ctx context.Context, req *Request) (string, error)

// Call calls f(ctx, req).
func (f Func) Call(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}

// Suppress is a hook that handles every command itself, so no task is ever
// emitted.
var Suppress Hook = Func(func(context.Context, *Request) (string, error) {
	return "", nil
})
