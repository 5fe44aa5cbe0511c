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
	"context"
	"fmt"
	"runtime"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/spf13/afero"
	"github.com/spf13/afero/mem"
	"golang.org/x/sync/errgroup"

	"github.com/abcxyz/commander/catalog"
	"github.com/abcxyz/commander/commander"
	"github.com/abcxyz/commander/internal/cli"
	"github.com/abcxyz/commander/logging"
)

var _ cli.Command = (*ValidateCommand)(nil)

// ValidateCommand checks command files without dispatching anything.
type ValidateCommand struct {
	cli.BaseCommand

	flagExamples bool

	// fs overrides the filesystem for testing.
	fs afero.Fs
}

func (c *ValidateCommand) Desc() string {
	return "Validate command files"
}

func (c *ValidateCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options] FILE...

  Load every FILE as a command catalog of its own and report each command
  that fails to load. With -examples, the example line of every command is
  also dispatched, with pre-hooks and exec expansion disabled.
`
}

func (c *ValidateCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()

	f := set.NewSection("VALIDATE OPTIONS")
	f.BoolVar(&cli.BoolVar{
		Name:   "examples",
		Usage:  "Also dispatch the example line of every command.",
		Target: &c.flagExamples,
	})
	return set
}

func (c *ValidateCommand) PredictArgs() complete.Predictor {
	return predict.Files("*.json")
}

// fileReport is the outcome of validating one file.
type fileReport struct {
	commands int
	errs     []error
}

func (c *ValidateCommand) Run(ctx context.Context, args []string) error {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	paths := f.Args()
	if len(paths) == 0 {
		return fmt.Errorf("expected at least one file")
	}

	fs := c.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	reports := make([]*fileReport, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			reports[i] = c.validateFile(gctx, fs, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to validate: %w", err)
	}

	failed := 0
	for i, path := range paths {
		r := reports[i]
		if len(r.errs) == 0 {
			c.Outf("%s: ok (%d commands)", path, r.commands)
			continue
		}

		failed++
		for _, err := range r.errs {
			c.Errf("%s", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(paths))
	}
	return nil
}

func (c *ValidateCommand) validateFile(ctx context.Context, fs afero.Fs, path string) *fileReport {
	logger := logging.FromContext(ctx).With("path", path)

	cmds, err := catalog.LoadFile(fs, path)
	r := &fileReport{
		commands: len(cmds),
		errs:     unjoin(err),
	}
	logger.DebugContext(ctx, "loaded command file", "commands", len(cmds), "errors", len(r.errs))

	if !c.flagExamples {
		return r
	}

	cmdr := commander.New(catalog.New(cmds...), &commander.Options{
		FS:      exampleFS{afero.NewMemMapFs()},
		HomeDir: func() (string, error) { return "/home", nil },
	})
	check := func(name, example string) {
		if example == "" {
			return
		}
		if _, err := cmdr.ProcessInput(ctx, "validate", example); err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: command %q: example %q: %w", path, name, example, err))
		}
	}
	for _, cmd := range cmds {
		check(cmd.Name, cmd.Example)
		for _, sub := range cmd.Subcommands {
			check(cmd.Name+" "+sub.Name, sub.Example)
		}
	}
	return r
}

// exampleFS serves the FILE arguments of example lines. Every path opens as an
// empty file, so examples do not depend on the files of the validating host.
type exampleFS struct {
	afero.Fs
}

func (exampleFS) Open(name string) (afero.File, error) {
	return mem.NewFileHandle(mem.CreateFile(name)), nil
}
