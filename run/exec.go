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

// Package run executes short-lived external programs, such as process-backed
// hooks, with bounded run time and captured I/O.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/abcxyz/commander/logging"
)

// DefaultRunTimeout is how long commands wait if the context doesn't have a
// deadline.
const DefaultRunTimeout = time.Minute

// DefaultWaitDelay is how long after context cancellation processes are
// actually killed. See exec.Cmd.WaitDelay for more information.
const DefaultWaitDelay = time.Second

// Simple is a wrapper around [Run] that captures stdout and stderr as strings.
func Simple(ctx context.Context, args ...string) (stdout, stderr string, _ error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	opts := []*Option{
		WithStdout(&stdoutBuf),
		WithStderr(&stderrBuf),
	}

	_, err := Run(ctx, opts, args...)
	return stdoutBuf.String(), stderrBuf.String(), err
}

// Run executes the command specified by args, applying opts. A non-zero exit
// code results in an *exec.ExitError. When stdout or stderr are captured into
// a [bytes.Buffer], their content is included in the returned error.
//
// If the context doesn't have a deadline, DefaultRunTimeout is applied. This
// doesn't execute a shell.
func Run(ctx context.Context, opts []*Option, args ...string) (exitCode int, _ error) {
	logger := logging.FromContext(ctx)

	if len(args) == 0 {
		return -1, errors.New("run: must provide at least one argument (the command)")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRunTimeout)
		defer cancel()
	}

	compiled := compileOpts(opts)

	// #nosec G204 -- hook programs are configured by the operator.
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = compiled.stdin
	cmd.WaitDelay = DefaultWaitDelay

	cmd.Stdout = os.Stdout
	if compiled.stdout != nil {
		cmd.Stdout = compiled.stdout
	}
	cmd.Stderr = os.Stderr
	if compiled.stderr != nil {
		cmd.Stderr = compiled.stderr
	}

	if len(compiled.additionalEnv) > 0 {
		// os/exec has "last wins" semantics, so appending overrides.
		cmd.Env = append(os.Environ(), compiled.additionalEnv...)
	}

	start := time.Now()
	logger.DebugContext(ctx, "starting command", "args", args)
	err := cmd.Run()

	exitCode = -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		out := captured(compiled.stdout)
		errOut := captured(compiled.stderr)

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("command %v exited non-zero (%d): %w (context error: %v)\nstdout:\n%s\nstderr:\n%s",
				args, exitCode, err, ctx.Err(), out, errOut)
		} else {
			err = fmt.Errorf("command %v failed: %w (context error: %v)\nstdout:\n%s\nstderr:\n%s",
				args, err, ctx.Err(), out, errOut)
		}
		logger.DebugContext(ctx, "command failed",
			"exit_code", exitCode,
			"duration", time.Since(start),
			"error", err)
		return exitCode, err
	}

	logger.DebugContext(ctx, "command finished",
		"exit_code", exitCode,
		"duration", time.Since(start))
	return exitCode, nil
}

func captured(w io.Writer) string {
	if b, ok := w.(*bytes.Buffer); ok {
		return b.String()
	}
	return "[not captured]"
}

// Option configures [Run].
type Option struct {
	stdin         io.Reader
	stdout        io.Writer
	stderr        io.Writer
	additionalEnv []string
}

// WithStdin provides the given reader as the command's standard input.
func WithStdin(stdin io.Reader) *Option {
	return &Option{stdin: stdin}
}

// WithStdout directs the command's standard output to the given writer.
func WithStdout(stdout io.Writer) *Option {
	return &Option{stdout: stdout}
}

// WithStderr directs the command's standard error to the given writer.
func WithStderr(stderr io.Writer) *Option {
	return &Option{stderr: stderr}
}

// WithAdditionalEnv adds or overrides environment variables. vars is a slice
// of strings in "KEY=VALUE" format. It can be given multiple times.
func WithAdditionalEnv(vars []string) *Option {
	return &Option{additionalEnv: vars}
}

// compileOpts merges opts. The last option specified for a stream wins and
// additional environment variables accumulate.
func compileOpts(opts []*Option) *Option {
	var out Option
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.stdin != nil {
			out.stdin = opt.stdin
		}
		if opt.stdout != nil {
			out.stdout = opt.stdout
		}
		if opt.stderr != nil {
			out.stderr = opt.stderr
		}
		out.additionalEnv = append(out.additionalEnv, opt.additionalEnv...)
	}
	return &out
}
