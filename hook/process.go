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

package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abcxyz/commander/logging"
	"github.com/abcxyz/commander/run"
)

var _ Hook = (*Process)(nil)

// Process is a hook backed by an external program. Each call starts the
// program, writes the [Request] as JSON to its stdin and uses its trimmed
// stdout as the hook result. A non-zero exit status is a hook failure.
type Process struct {
	args []string
	env  []string
}

// NewProcess creates a hook that runs the given command line. It panics if
// args is empty.
func NewProcess(args []string, env ...string) *Process {
	if len(args) == 0 {
		panic("hook: process requires a command")
	}
	return &Process{
		args: append([]string(nil), args...),
		env:  env,
	}
}

// Call runs the program. The program is killed when ctx is done.
func (p *Process) Call(ctx context.Context, req *Request) (string, error) {
	logger := logging.FromContext(ctx)

	in, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode hook request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	opts := []*run.Option{
		run.WithStdin(bytes.NewReader(in)),
		run.WithStdout(&stdout),
		run.WithStderr(&stderr),
	}
	if len(p.env) > 0 {
		opts = append(opts, run.WithAdditionalEnv(p.env))
	}

	logger.DebugContext(ctx, "calling process hook",
		"program", p.args[0],
		"ref", req.Ref,
		"agent_id", req.AgentID)

	if _, err := run.Run(ctx, opts, p.args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", errors.Join(ctxErr, err)
		}
		return "", fmt.Errorf("hook process failed: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
