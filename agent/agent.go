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

// Package agent provides lookups of agent properties needed while expanding
// exec templates, such as the agent architecture.
package agent

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownAgent is returned when an agent id has no known architecture.
var ErrUnknownAgent = errors.New("unknown agent")

// ArchLookup resolves the architecture of an agent, e.g. "x64" or "x86".
type ArchLookup interface {
	Arch(ctx context.Context, agentID string) (string, error)
}

// ArchFunc adapts an ordinary function to an [ArchLookup].
type ArchFunc func(ctx context.Context, agentID string) (string, error)

// Arch calls f(ctx, agentID).
func (f ArchFunc) Arch(ctx context.Context, agentID string) (string, error) {
	return f(ctx, agentID)
}

// Static is a fixed table of agent architectures. The "*" entry, if present,
// applies to every agent not listed.
type Static map[string]string

// Arch returns the architecture of agentID.
func (s Static) Arch(_ context.Context, agentID string) (string, error) {
	if v, ok := s[agentID]; ok {
		return v, nil
	}
	if v, ok := s["*"]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%q: %w", agentID, ErrUnknownAgent)
}
