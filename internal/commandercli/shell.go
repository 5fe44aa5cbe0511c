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

package commandercli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"

	"github.com/abcxyz/commander/catalog"
	"github.com/abcxyz/commander/internal/cli"
	"github.com/abcxyz/commander/internal/extwatch"
	"github.com/abcxyz/commander/logging"
	"github.com/abcxyz/commander/tokenizer"
)

var _ cli.Command = (*ShellCommand)(nil)

// shellCommands are the shell's own commands. They start with ":" so they
// never collide with catalog commands.
var shellCommands = []string{":agent", ":exit", ":groups", ":help", ":load", ":quit", ":unload"}

const shellHelp = `:agent [ID]          show or change the agent lines are dispatched for
:load FILE [NAME]    register the commands in FILE as a group
:unload OWNER        remove every group registered under OWNER
:groups              list registered groups
:exit, :quit         leave the shell
help [CMD [SUB]]     show catalog help`

// ShellCommand is the interactive operator console.
type ShellCommand struct {
	hostCommand

	flagHistory string
	flagNoWatch bool

	// newOwnerID creates owner ids of groups loaded with :load.
	newOwnerID func() string
}

func (c *ShellCommand) Desc() string {
	return "Start an interactive operator shell"
}

func (c *ShellCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]

  Read command lines and print the task of each one as JSON. When stdin is a
  terminal, lines are edited with history and completion of catalog commands.
  Extension files matching the configured glob are reloaded as they change.

  Shell commands:

` + indent(shellHelp, "    ")
}

func (c *ShellCommand) Flags() *cli.FlagSet {
	set := c.hostFlagSet()

	f := set.NewSection("SHELL OPTIONS")
	f.StringVar(&cli.StringVar{
		Name:    "history",
		Example: "~/.commander_history",
		Usage:   "File the line history is kept in. Overrides the configuration.",
		Target:  &c.flagHistory,
	})
	f.BoolVar(&cli.BoolVar{
		Name:   "no-watch",
		Usage:  "Do not reload extension files when they change.",
		Target: &c.flagNoWatch,
	})
	return set
}

func (c *ShellCommand) Run(ctx context.Context, args []string) error {
	f, err := c.parse(ctx, args, c.Flags)
	if err != nil {
		return err
	}
	if len(f.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %q", f.Args())
	}

	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	if c.flagHistory != "" {
		h.cfg.HistoryFile = c.flagHistory
	}

	events, err := c.watch(ctx, h)
	if err != nil {
		return err
	}

	reader, err := c.lineReader(h)
	if err != nil {
		return err
	}
	defer reader.Close()

	newOwnerID := c.newOwnerID
	if newOwnerID == nil {
		newOwnerID = uuid.NewString
	}

	s := &session{
		host:       h,
		agentID:    h.agentID(),
		stdout:     c.Stdout(),
		stderr:     c.Stderr(),
		errColor:   color.New(color.FgRed),
		newOwnerID: newOwnerID,
	}
	return s.loop(ctx, reader, events)
}

// watch starts the extension watcher if extensions are configured on the OS
// filesystem. The returned channel is nil otherwise.
func (c *ShellCommand) watch(ctx context.Context, h *host) (<-chan extwatch.Event, error) {
	if c.flagNoWatch || h.cfg.Extensions == "" {
		return nil, nil
	}
	if _, ok := h.fs.(*afero.OsFs); !ok {
		return nil, nil
	}

	w, err := extwatch.New(h.cfg.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to watch extensions: %w", err)
	}

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(wctx); err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "extension watcher stopped", "error", err)
		}
	}()
	h.closer.add(func() error {
		cancel()
		<-done
		return nil
	})
	return w.Events(), nil
}

// lineReader picks readline for terminals and a plain scanner otherwise.
func (c *ShellCommand) lineReader(h *host) (lineReader, error) {
	if f, ok := c.Stdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		rl, err := readline.NewEx(&readline.Config{
			HistoryFile:       h.cfg.HistoryFile,
			AutoComplete:      &completer{catalog: h.catalog},
			InterruptPrompt:   "^C",
			EOFPrompt:         ":exit",
			HistorySearchFold: true,
			Stdout:            c.Stdout(),
			Stderr:            c.Stderr(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start line editor: %w", err)
		}
		return &readlineReader{rl: rl}, nil
	}
	return &scanReader{scanner: bufio.NewScanner(c.Stdin())}, nil
}

// lineReader yields operator lines. io.EOF ends the session.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

type readlineReader struct {
	rl *readline.Instance
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	return r.rl.Readline() //nolint:wrapcheck // io.EOF and ErrInterrupt are checked by the caller.
}

func (r *readlineReader) Close() error {
	return r.rl.Close() //nolint:wrapcheck // Want passthrough
}

type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) ReadLine(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read line: %w", err)
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() error {
	return nil
}

// completer completes catalog entries and shell commands for readline.
type completer struct {
	catalog *catalog.Catalog
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	matches := completions(append(c.catalog.ListAll(), shellCommands...), prefix)

	out := make([][]rune, 0, len(matches))
	for _, m := range matches {
		out = append(out, []rune(m[len(prefix):]+" "))
	}
	return out, len([]rune(prefix))
}

// completions returns the sorted unique entries starting with prefix.
func completions(entries []string, prefix string) []string {
	seen := make(map[string]struct{}, len(entries))
	var out []string
	for _, e := range entries {
		if !strings.HasPrefix(e, prefix) {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// session is the state of one shell run. All catalog access happens on the
// goroutine running loop.
type session struct {
	host       *host
	agentID    string
	stdout     io.Writer
	stderr     io.Writer
	errColor   *color.Color
	newOwnerID func() string
}

func (s *session) loop(ctx context.Context, reader lineReader, events <-chan extwatch.Event) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		s.applyEvents(ctx, events)

		line, err := reader.ReadLine(s.prompt())
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case err != nil:
			return err //nolint:wrapcheck // Already descriptive.
		}

		s.applyEvents(ctx, events)
		if quit := s.handle(ctx, strings.TrimSpace(line)); quit {
			return nil
		}
	}
}

func (s *session) prompt() string {
	return fmt.Sprintf("commander [%s]> ", s.agentID)
}

// applyEvents applies every pending extension event without blocking.
func (s *session) applyEvents(ctx context.Context, events <-chan extwatch.Event) {
	if events == nil {
		return
	}

	logger := logging.FromContext(ctx)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.host.reloadExtension(ctx, ev.Path, ev.Kind == extwatch.Removed); err != nil {
				s.printErr(err)
				continue
			}
			logger.InfoContext(ctx, "extension "+ev.Kind.String(), "path", ev.Path)
		default:
			return
		}
	}
}

// handle runs one line and reports whether the shell should exit.
func (s *session) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, ":") {
		quit, err := s.shellCommand(line)
		if err != nil {
			s.printErr(err)
		}
		return quit
	}

	res, err := s.host.commander.ProcessInput(ctx, s.agentID, line)
	if err == nil {
		err = writeResult(s.stdout, s.stderr, res)
	}
	if err != nil {
		s.printErr(err)
	}
	return false
}

func (s *session) shellCommand(line string) (bool, error) {
	args := tokenizer.Split(line)
	name, args := args[0], args[1:]

	switch name {
	case ":exit", ":quit":
		return true, nil

	case ":help":
		fmt.Fprintln(s.stdout, shellHelp)

	case ":agent":
		switch len(args) {
		case 0:
			fmt.Fprintln(s.stdout, s.agentID)
		case 1:
			s.agentID = args[0]
		default:
			return false, fmt.Errorf("usage: :agent [ID]")
		}

	case ":load":
		if len(args) < 1 || len(args) > 2 {
			return false, fmt.Errorf("usage: :load FILE [NAME]")
		}
		return false, s.loadGroup(args)

	case ":unload":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: :unload OWNER")
		}
		n := s.host.catalog.RemoveGroup(args[0])
		if n == 0 {
			return false, fmt.Errorf("no groups registered under %q", args[0])
		}
		fmt.Fprintf(s.stdout, "removed %d group(s)\n", n)

	case ":groups":
		for _, g := range s.host.catalog.Groups() {
			fmt.Fprintf(s.stdout, "%s  %s  %d commands\n", g.OwnerID, g.Name, len(g.Commands))
		}

	default:
		return false, fmt.Errorf("unknown shell command %q, see :help", name)
	}
	return false, nil
}

func (s *session) loadGroup(args []string) error {
	path := args[0]
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(args) == 2 {
		name = args[1]
	}

	cmds, err := catalog.LoadFile(s.host.fs, path)
	if err := fatalLoadError(err); err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}
	for _, e := range unjoin(err) {
		s.printErr(e)
	}

	owner := s.newOwnerID()
	s.host.catalog.AddGroup(&catalog.Group{
		Name:     name,
		OwnerID:  owner,
		Commands: cmds,
		Hook:     s.host.hook,
	})
	fmt.Fprintf(s.stdout, "loaded %d commands as group %q (owner %s)\n", len(cmds), name, owner)
	return nil
}

func (s *session) printErr(err error) {
	s.errColor.Fprintf(s.stderr, "error: %s\n", err)
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
