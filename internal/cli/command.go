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

package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/posener/complete/v2"
)

// commandPlaceholder is replaced by the full command name in help output.
const commandPlaceholder = "{{ COMMAND }}"

// maxPromptBytes bounds a single line read by [BaseCommand.Prompt].
const maxPromptBytes = 64 * 1_000

// Command is a runnable command. [BaseCommand] implements everything except
// Desc, Help and Run.
type Command interface {
	// Desc is the one-line summary shown in the parent's command table.
	Desc() string

	// Help is the long help text. "{{ COMMAND }}" expands to the full command
	// name, and the flag help is appended after it.
	Help() string

	// Flags returns the flag set of the command, or nil.
	Flags() *FlagSet

	// Hidden commands are runnable but left out of help and completion.
	Hidden() bool

	Run(ctx context.Context, args []string) error

	// Prompt reads a line from stdin. msg is printed when stdin is interactive.
	Prompt(ctx context.Context, msg string) (string, error)

	Stdout() io.Writer
	SetStdout(w io.Writer)
	Stderr() io.Writer
	SetStderr(w io.Writer)
	Stdin() io.Reader
	SetStdin(r io.Reader)

	// Pipe replaces the three streams with fresh buffers and returns them.
	Pipe() (stdin, stdout, stderr *bytes.Buffer)
}

// ArgPredictor is implemented by commands that can predict their positional
// arguments for shell completion.
type ArgPredictor interface {
	PredictArgs() complete.Predictor
}

// CommandFactory builds a command on demand, so that only the command being
// run is ever constructed.
type CommandFactory func() Command

var _ Command = (*RootCommand)(nil)

// RootCommand dispatches to named subcommands. A RootCommand may itself be a
// subcommand of another RootCommand.
type RootCommand struct {
	BaseCommand

	// Name is the binary name at the top level, or the subcommand name when
	// nested. Nested roots are renamed to "parent child" when run.
	Name        string
	Description string

	// Hide removes the whole subtree from help and completion.
	Hide bool

	// Version is printed for -version. Nested roots inherit it.
	Version string

	Commands map[string]CommandFactory
}

func (r *RootCommand) Desc() string {
	return r.Description
}

func (r *RootCommand) Hidden() bool {
	return r.Hide
}

// Help lists the visible subcommands, sorted by name.
func (r *RootCommand) Help() string {
	type row struct{ name, desc string }

	var (
		rows  []row
		width int
	)
	for name, fn := range r.Commands {
		cmd := fn()
		if cmd == nil || cmd.Hidden() {
			continue
		}
		rows = append(rows, row{name, cmd.Desc()})
		width = max(width, len(name))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	lines := []string{"Usage: " + r.Name + " COMMAND", ""}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("  %-*s%s", width+4, row.name, row.desc))
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Run handles -help and -version and otherwise runs the named subcommand with
// the remaining arguments.
func (r *RootCommand) Run(ctx context.Context, args []string) error {
	var name string
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	switch name {
	case "", "-h", "-help", "--help":
		fmt.Fprintln(r.Stderr(), r.Help())
		return nil
	case "-v", "-version", "--version":
		fmt.Fprintln(r.Stderr(), r.Version)
		return nil
	}

	fn, ok := r.Commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q: run \"%s -help\" for a list of commands", name, r.Name)
	}
	child := fn()
	r.inherit(child)

	if nested, ok := child.(*RootCommand); ok {
		nested.Name = r.Name + " " + nested.Name
		nested.Version = r.Version
		return nested.Run(ctx, args)
	}

	err := child.Run(ctx, args)
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(child.Stderr(), formatHelp(child, r.Name+" "+name))
		return nil
	}
	return err //nolint:wrapcheck // Command errors are printed as-is.
}

// inherit passes the streams and the environment of r on to child.
func (r *RootCommand) inherit(child Command) {
	child.SetStdin(r.stdin)
	child.SetStdout(r.stdout)
	child.SetStderr(r.stderr)
	if v, ok := child.(interface{ SetLookupEnv(LookupEnvFunc) }); ok {
		v.SetLookupEnv(r.lookupEnv)
	}
}

// Completions builds the completion tree for the command and all of its
// visible subcommands.
func (r *RootCommand) Completions() *complete.Command {
	out := &complete.Command{
		Sub: make(map[string]*complete.Command, len(r.Commands)),
	}

	for name, fn := range r.Commands {
		instance := fn()
		if instance == nil || instance.Hidden() {
			continue
		}

		if typ, ok := instance.(*RootCommand); ok {
			out.Sub[name] = typ.Completions()
			continue
		}

		sub := &complete.Command{
			Flags: make(map[string]complete.Predictor),
		}
		if set := instance.Flags(); set != nil {
			set.VisitAll(func(f *flag.Flag) {
				v, ok := f.Value.(Value)
				if !ok || v.Hidden() {
					return
				}
				sub.Flags[f.Name] = v.Predictor()
			})
		}
		if typ, ok := instance.(ArgPredictor); ok {
			sub.Args = typ.PredictArgs()
		}
		out.Sub[name] = sub
	}
	return out
}

// formatHelp renders the long help of cmd, including its flags.
func formatHelp(cmd Command, name string) string {
	help := strings.TrimSpace(strings.ReplaceAll(cmd.Help(), commandPlaceholder, name))
	if set := cmd.Flags(); set != nil {
		if v := set.Help(); v != "" {
			help += "\n\n" + v
		}
	}
	return help
}

// BaseCommand holds the streams and environment of a command. Commands embed
// it and implement Desc, Help and Run. Unset streams are the process streams.
type BaseCommand struct {
	stdout, stderr io.Writer
	stdin          io.Reader
	lookupEnv      LookupEnvFunc
}

func (c *BaseCommand) Flags() *FlagSet {
	return nil
}

func (c *BaseCommand) Hidden() bool {
	return false
}

// NewFlagSet creates a flag set bound to the command's environment lookup.
func (c *BaseCommand) NewFlagSet(opts ...Option) *FlagSet {
	opts = append([]Option{WithLookupEnv(c.LookupEnv)}, opts...)
	return NewFlagSet(opts...)
}

// Prompt reads one line from stdin, without the trailing newline. msg is
// printed first when stdin is interactive.
func (c *BaseCommand) Prompt(ctx context.Context, msg string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("failed to prompt: %w", err)
	}

	stdin := c.Stdin()
	if shouldPrompt(stdin) {
		fmt.Fprint(c.Stdout(), msg)
	}

	scanner := bufio.NewScanner(io.LimitReader(stdin, maxPromptBytes))
	scanner.Scan()
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return scanner.Text(), nil
}

// shouldPrompt reports whether stdin is interactive: a terminal or an
// in-process pipe.
func shouldPrompt(stdin io.Reader) bool {
	switch v := stdin.(type) {
	case *io.PipeReader:
		return true
	case *os.File:
		return isatty.IsTerminal(v.Fd()) || isatty.IsCygwinTerminal(v.Fd())
	default:
		return false
	}
}

// Outf prints to stdout with a trailing newline.
func (c *BaseCommand) Outf(format string, a ...any) {
	fmt.Fprintf(c.Stdout(), format+"\n", a...)
}

// Errf prints to stderr with a trailing newline.
func (c *BaseCommand) Errf(format string, a ...any) {
	fmt.Fprintf(c.Stderr(), format+"\n", a...)
}

func (c *BaseCommand) Stdout() io.Writer {
	if c.stdout == nil {
		return os.Stdout
	}
	return c.stdout
}

func (c *BaseCommand) SetStdout(w io.Writer) {
	c.stdout = w
}

func (c *BaseCommand) Stderr() io.Writer {
	if c.stderr == nil {
		return os.Stderr
	}
	return c.stderr
}

func (c *BaseCommand) SetStderr(w io.Writer) {
	c.stderr = w
}

func (c *BaseCommand) Stdin() io.Reader {
	if c.stdin == nil {
		return os.Stdin
	}
	return c.stdin
}

func (c *BaseCommand) SetStdin(r io.Reader) {
	c.stdin = r
}

// Pipe replaces the streams with empty buffers and returns them.
func (c *BaseCommand) Pipe() (stdin, stdout, stderr *bytes.Buffer) {
	stdin, stdout, stderr = new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)
	c.stdin, c.stdout, c.stderr = stdin, stdout, stderr
	return stdin, stdout, stderr
}

// LookupEnv returns the value of the environment variable k. It uses
// [os.LookupEnv] unless overridden with [BaseCommand.SetLookupEnv].
func (c *BaseCommand) LookupEnv(k string) (string, bool) {
	if fn := c.lookupEnv; fn != nil {
		return fn(k)
	}
	return os.LookupEnv(k)
}

// SetLookupEnv overrides the environment lookup function.
func (c *BaseCommand) SetLookupEnv(fn LookupEnvFunc) {
	c.lookupEnv = fn
}

// GetEnv returns the value of the environment variable k, or the empty string.
func (c *BaseCommand) GetEnv(k string) string {
	v, _ := c.LookupEnv(k)
	return v
}
