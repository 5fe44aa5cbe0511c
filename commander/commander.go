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

// Package commander compiles operator input lines into tasks.
//
// [Commander.ProcessInput] tokenizes a line, resolves the command (and its
// subcommand) in a [catalog.Catalog], binds the remaining tokens to the
// declared arguments, optionally asks the pre-hook of the command scope for
// approval and optionally expands the exec template of the command, which
// feeds a lower-level line back into ProcessInput.
//
// The two switches in [Options] cover the three ways the pipeline is used:
// the full operator runtime (hooks and expansion on), the command file
// validator (both off) and a pure expansion mode without hooks.
//
// A Commander holds no locks. Hosts must serialize ProcessInput with
// mutation of the catalog.
package commander

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/abcxyz/commander/agent"
	"github.com/abcxyz/commander/catalog"
	"github.com/abcxyz/commander/help"
	"github.com/abcxyz/commander/hook"
	"github.com/abcxyz/commander/logging"
	"github.com/abcxyz/commander/tokenizer"
)

// DefaultHookTimeout bounds each pre-hook call unless [Options.HookTimeout]
// is set.
const DefaultHookTimeout = 30 * time.Second

// Options configure a [Commander].
type Options struct {
	// Hooks enables pre-hook calls.
	Hooks bool

	// ExpandExec enables exec template expansion. Without it, a command with an
	// exec template produces its own task.
	ExpandExec bool

	// HookTimeout bounds each pre-hook call. The default is
	// [DefaultHookTimeout].
	HookTimeout time.Duration

	// FS is used to read FILE arguments. The default is the OS filesystem.
	FS afero.Fs

	// HomeDir returns the directory "~/" expands to. The default is the home
	// directory of the current user.
	HomeDir func() (string, error)

	// Arch resolves $ARCH() in exec templates. Templates using it fail without
	// one.
	Arch agent.ArchLookup
}

// Result is the outcome of a successfully processed line.
type Result struct {
	// Task is the task to send to the agent. It is nil for help output and for
	// suppressed lines.
	Task *Task

	// Suppressed is true when the pre-hook handled the command itself.
	Suppressed bool

	// HookError is the message the pre-hook answered with, if any. The task is
	// still returned; hosts are expected to show the message instead of
	// sending the task.
	HookError string

	// Help is the rendered text of a help request.
	Help string
}

// Commander dispatches lines against a catalog.
type Commander struct {
	catalog     *catalog.Catalog
	hooks       bool
	expandExec  bool
	hookTimeout time.Duration
	fs          afero.Fs
	homeDir     func() (string, error)
	arch        agent.ArchLookup
}

// New creates a commander for cat. opts may be nil, which disables hooks and
// expansion.
func New(cat *catalog.Catalog, opts *Options) *Commander {
	if opts == nil {
		opts = &Options{}
	}

	c := &Commander{
		catalog:     cat,
		hooks:       opts.Hooks,
		expandExec:  opts.ExpandExec,
		hookTimeout: opts.HookTimeout,
		fs:          opts.FS,
		homeDir:     opts.HomeDir,
		arch:        opts.Arch,
	}
	if c.hookTimeout <= 0 {
		c.hookTimeout = DefaultHookTimeout
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.homeDir == nil {
		c.homeDir = homedir.Dir
	}
	return c
}

// Catalog returns the catalog lines are resolved against.
func (c *Commander) Catalog() *catalog.Catalog {
	return c.catalog
}

// ProcessInput compiles line, typed for agentID. Failures are returned as
// [*ResolutionError], [*BindingError], [*HookError] or, from exec templates,
// [*bof.PackError].
func (c *Commander) ProcessInput(ctx context.Context, agentID, line string) (*Result, error) {
	return c.process(ctx, agentID, line, 0)
}

func (c *Commander) logger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

func (c *Commander) process(ctx context.Context, agentID, line string, depth int) (*Result, error) {
	logger := c.logger(ctx).With("agent_id", agentID, "depth", depth)

	tokens := tokenizer.Split(line)
	if len(tokens) == 0 {
		return nil, &ResolutionError{Msg: "empty input"}
	}

	if tokens[0] == "help" {
		return c.help(tokens[1:])
	}

	cmd, scope, ok := c.catalog.Lookup(tokens[0])
	if !ok {
		return nil, &ResolutionError{Command: tokens[0], Msg: "unknown command"}
	}

	target, rest := cmd, tokens[1:]
	task := &Task{Command: cmd.Name}
	name := cmd.Name
	if cmd.HasSubcommands() {
		if len(rest) == 0 {
			return nil, &ResolutionError{Command: cmd.Name, Msg: "missing subcommand"}
		}
		sub := cmd.Subcommand(rest[0])
		if sub == nil {
			return nil, &ResolutionError{Command: cmd.Name, Msg: fmt.Sprintf("unknown subcommand %q", rest[0])}
		}
		target, rest = sub, rest[1:]
		task.Subcommand = sub.Name
		name = cmd.Name + " " + sub.Name
	}
	logger = logger.With("command", name)
	logger.DebugContext(ctx, "resolved command", "scope", scope.Kind.String(), "tokens", len(rest))

	b, err := bind(name, target.Args, rest)
	if err != nil {
		return nil, err
	}
	res, err := c.resolve(ctx, name, target.Args, b)
	if err != nil {
		return nil, err
	}
	task.Fields = res.fields
	task.Message = renderMessage(target.Message, res.texts)
	logger.DebugContext(ctx, "bound arguments", "fields", len(task.Fields))

	ref := target.PreHook
	if ref == "" {
		ref = cmd.PreHook
	}
	if c.hooks && ref != "" {
		answer, err := c.callHook(ctx, scope, &hookCall{
			command: name,
			ref:     ref,
			agentID: agentID,
			line:    line,
			task:    task,
			args:    rest,
		})
		if err != nil {
			return nil, err
		}
		if answer == "" {
			logger.DebugContext(ctx, "pre-hook suppressed task")
			return &Result{Suppressed: true}, nil
		}
		return &Result{Task: task, HookError: answer}, nil
	}

	if !c.expandExec || target.Exec == "" {
		return &Result{Task: task}, nil
	}

	if depth >= MaxExecDepth {
		return nil, &ResolutionError{Command: name, Msg: fmt.Sprintf("exec templates nested deeper than %d", MaxExecDepth)}
	}

	expanded, err := c.expand(ctx, target.Exec, &expansion{
		agentID: agentID,
		command: name,
		scope:   scope,
		args:    target.Args,
		task:    task,
		texts:   res.texts,
	})
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "expanded exec template", "line", expanded)

	inner, err := c.process(ctx, agentID, expanded, depth+1)
	if err != nil {
		return nil, fmt.Errorf("exec of %q: %w", name, err)
	}
	if inner.Task != nil && task.Message != "" {
		inner.Task.Message = task.Message
	}
	return inner, nil
}

// help renders the catalog, a command or a subcommand.
func (c *Commander) help(args []string) (*Result, error) {
	if len(args) == 0 {
		return &Result{Help: help.Catalog(c.catalog.Sections())}, nil
	}

	cmd, _, ok := c.catalog.Lookup(args[0])
	if !ok {
		return nil, &ResolutionError{Command: args[0], Msg: "unknown command"}
	}
	if len(args) == 1 || !cmd.HasSubcommands() {
		return &Result{Help: help.Command(cmd)}, nil
	}

	sub := cmd.Subcommand(args[1])
	if sub == nil {
		return nil, &ResolutionError{Command: cmd.Name, Msg: fmt.Sprintf("unknown subcommand %q", args[1])}
	}
	return &Result{Help: help.Subcommand(cmd, sub)}, nil
}

type hookCall struct {
	command string
	ref     string
	agentID string
	line    string
	task    *Task
	args    []string
}

// callHook asks the scope hook about the call, bounded by the hook timeout.
func (c *Commander) callHook(ctx context.Context, scope *catalog.Scope, call *hookCall) (string, error) {
	if scope.Hook == nil {
		return "", &HookError{Command: call.command, Ref: call.ref, Err: errors.New("no hook available in scope")}
	}

	data, err := json.Marshal(call.task)
	if err != nil {
		return "", &HookError{Command: call.command, Ref: call.ref, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.hookTimeout)
	defer cancel()

	start := time.Now()
	answer, err := scope.Hook.Call(ctx, &hook.Request{
		AgentID: call.agentID,
		Ref:     call.ref,
		Line:    call.line,
		Task:    data,
		Args:    call.args,
	})
	c.logger(ctx).DebugContext(ctx, "pre-hook finished",
		"command", call.command,
		"ref", call.ref,
		"duration", time.Since(start),
		"error", err)
	if err != nil {
		return "", &HookError{Command: call.command, Ref: call.ref, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &HookError{Command: call.command, Ref: call.ref, Err: err}
	}
	return answer, nil
}
