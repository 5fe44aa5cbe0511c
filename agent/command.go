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

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abcxyz/commander/run"
)

var _ ArchLookup = (*Command)(nil)

// Command looks up architectures by running an external program with the
// agent id as its last argument. The trimmed stdout is the architecture; empty
// output means the agent is unknown.
type Command struct {
	args []string
}

// NewCommand creates a lookup that runs args. It panics if args is empty.
func NewCommand(args ...string) *Command {
	if len(args) == 0 {
		panic("agent: command lookup requires a program")
	}
	return &Command{args: append([]string(nil), args...)}
}

// Arch runs the program for agentID.
func (c *Command) Arch(ctx context.Context, agentID string) (string, error) {
	args := append(append([]string(nil), c.args...), agentID)
	stdout, _, err := run.Simple(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("architecture lookup for %q failed: %w", agentID, err)
	}

	arch := strings.TrimSpace(stdout)
	if arch == "" {
		return "", fmt.Errorf("%q: %w", agentID, ErrUnknownAgent)
	}
	return arch, nil
}

// Chain returns a lookup that asks each lookup in order and returns the first
// answer. Lookups reporting [ErrUnknownAgent] are skipped; any other error
// stops the chain.
func Chain(lookups ...ArchLookup) ArchLookup {
	return ArchFunc(func(ctx context.Context, agentID string) (string, error) {
		for _, l := range lookups {
			arch, err := l.Arch(ctx, agentID)
			if errors.Is(err, ErrUnknownAgent) {
				continue
			}
			return arch, err
		}
		return "", fmt.Errorf("%q: %w", agentID, ErrUnknownAgent)
	})
}
