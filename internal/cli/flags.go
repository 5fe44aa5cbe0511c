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

//nolint:wrapcheck // These functions intentionally just wrap flag.Flag.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kr/text"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/abcxyz/commander/logging"
)

const maxLineLength = 80

// LookupEnvFunc is the signature of a function for looking up environment
// variables. It matches that of [os.LookupEnv].
type LookupEnvFunc = func(string) (string, bool)

// MapLookuper returns a LookupEnvFunc that reads from a map instead of the
// environment. This is mostly used for testing.
func MapLookuper(m map[string]string) LookupEnvFunc {
	return func(s string) (string, bool) {
		v, ok := m[s]
		return v, ok
	}
}

// AfterParseFunc is called after flags have been parsed. existingErr is the
// error of parsing and of earlier AfterParse functions.
type AfterParseFunc func(existingErr error) error

// FlagSet is the root flag set for creating and managing flag sections.
type FlagSet struct {
	flagSet         *flag.FlagSet
	sections        []*FlagSection
	lookupEnv       LookupEnvFunc
	afterParseFuncs []AfterParseFunc
}

// Option is an option to the flagset.
type Option func(fs *FlagSet) *FlagSet

// WithLookupEnv defines a custom function for looking up environment variables.
func WithLookupEnv(fn LookupEnvFunc) Option {
	return func(fs *FlagSet) *FlagSet {
		if fn != nil {
			fs.lookupEnv = fn
		}
		return fs
	}
}

// NewFlagSet creates a new root flag set.
func NewFlagSet(opts ...Option) *FlagSet {
	f := flag.NewFlagSet("", flag.ContinueOnError)

	// Errors and usage are controlled by the caller.
	f.Usage = func() {}
	f.SetOutput(io.Discard)

	fs := &FlagSet{
		flagSet:   f,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		fs = opt(fs)
	}
	return fs
}

// FlagSection is a named group of flags. Flags are flat in the underlying
// [flag.FlagSet]; sections only structure help output.
type FlagSection struct {
	name      string
	flagNames []string

	flagSet   *flag.FlagSet
	lookupEnv LookupEnvFunc
}

// NewSection creates a new flag section. By convention, section names are all
// capital letters (e.g. "HOOK OPTIONS").
func (f *FlagSet) NewSection(name string) *FlagSection {
	fs := &FlagSection{
		name:      name,
		flagSet:   f.flagSet,
		lookupEnv: f.lookupEnv,
	}
	f.sections = append(f.sections, fs)
	return fs
}

// AfterParse registers a function to run after parsing, for validation and
// defaults that depend on other flags or arguments.
func (f *FlagSet) AfterParse(fn AfterParseFunc) {
	if fn == nil {
		return
	}
	f.afterParseFuncs = append(f.afterParseFuncs, fn)
}

// Arg implements flag.FlagSet#Arg.
func (f *FlagSet) Arg(i int) string {
	return f.flagSet.Arg(i)
}

// Args implements flag.FlagSet#Args.
func (f *FlagSet) Args() []string {
	return f.flagSet.Args()
}

// Lookup implements flag.FlagSet#Lookup.
func (f *FlagSet) Lookup(name string) *flag.Flag {
	return f.flagSet.Lookup(name)
}

// Parse parses args and then runs every AfterParse function, joining all
// errors. Panics in AfterParse functions are returned as errors.
func (f *FlagSet) Parse(args []string) error {
	merr := f.flagSet.Parse(args)

	for _, fn := range f.afterParseFuncs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					merr = errors.Join(merr, fmt.Errorf("panic: %v", r))
				}
			}()

			merr = errors.Join(merr, fn(merr))
		}()
	}
	return merr
}

// VisitAll implements flag.FlagSet#VisitAll.
func (f *FlagSet) VisitAll(fn func(*flag.Flag)) {
	f.flagSet.VisitAll(fn)
}

// Help returns formatted help output for all sections.
func (f *FlagSet) Help() string {
	var b strings.Builder

	for _, set := range f.sections {
		sort.Strings(set.flagNames)

		fmt.Fprintf(&b, "%s\n\n", set.name)

		for _, name := range set.flagNames {
			sub := set.flagSet.Lookup(name)
			if sub == nil {
				panic("inconsistency between flag structure and help")
			}

			typ, ok := sub.Value.(Value)
			if !ok {
				panic(fmt.Sprintf("flag is incorrect type %T", sub.Value))
			}
			if typ.Hidden() {
				continue
			}

			aliases := typ.Aliases()
			sort.Slice(aliases, func(i, j int) bool {
				return len(aliases[i]) < len(aliases[j])
			})
			all := make([]string, 0, len(aliases)+1)
			for _, v := range aliases {
				all = append(all, "-"+v)
			}
			all = append(all, "-"+sub.Name)

			if typ.IsBoolFlag() {
				fmt.Fprintf(&b, "    %s\n", strings.Join(all, ", "))
			} else {
				fmt.Fprintf(&b, "    %s=%q\n", strings.Join(all, ", "), typ.Example())
			}

			fmt.Fprintf(&b, "%s\n\n", wrapAtLengthWithPadding(sub.Usage, 8))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// Value is an extension of [flag.Value] which adds examples, aliases and
// completion. All flags of this package satisfy this interface.
type Value interface {
	flag.Value

	// Get returns the value.
	Get() any

	// Aliases returns any defined aliases of the flag.
	Aliases() []string

	// Example returns an example input for the flag, used in help output.
	Example() string

	// Hidden returns true if the flag is hidden, false otherwise.
	Hidden() bool

	// IsBoolFlag returns true if the flag accepts no arguments, false otherwise.
	IsBoolFlag() bool

	// Predictor returns a completion predictor.
	Predictor() complete.Predictor
}

// ParserFunc is a function that parses a value into T, or returns an error.
type ParserFunc[T any] func(val string) (T, error)

// PrinterFunc is a function that pretty-prints T.
type PrinterFunc[T any] func(cur T) string

// SetterFunc is a function that sets *T to T.
type SetterFunc[T any] func(cur *T, val T)

// Var is the full definition of a flag, used with [Flag].
type Var[T any] struct {
	Name    string
	Aliases []string
	Usage   string
	Example string
	Default T
	Hidden  bool
	IsBool  bool
	EnvVar  string
	Target  *T

	Parser  ParserFunc[T]
	Printer PrinterFunc[T]

	// Predict is the completion predictor. It defaults to predicting something
	// for all flags except boolean flags.
	Predict complete.Predictor

	// Setter stores a parsed value into Target. The default overwrites Target.
	Setter SetterFunc[T]
}

// Flag defines a flag on a flag section. It panics if the target, parser or
// printer are nil.
func Flag[T any](f *FlagSection, i *Var[T]) {
	if i.Target == nil {
		panic("missing target")
	}
	if i.Parser == nil {
		panic("missing parser func")
	}
	if i.Printer == nil {
		panic("missing printer func")
	}

	predictor := i.Predict
	if predictor == nil {
		if i.IsBool {
			predictor = predict.Nothing
		} else {
			predictor = predict.Something
		}
	}

	setter := i.Setter
	if setter == nil {
		setter = func(cur *T, val T) { *cur = val }
	}

	initial := i.Default
	if i.EnvVar != "" {
		if v, ok := f.lookupEnv(i.EnvVar); ok {
			if t, err := i.Parser(v); err == nil {
				initial = t
			}
		}
	}
	*i.Target = initial

	example := i.Example
	if example == "" {
		example = fmt.Sprintf("%T", *new(T))
	}

	usage := i.Usage
	if v := i.Printer(i.Default); v != "" {
		usage += fmt.Sprintf(" The default value is %q.", v)
	}
	if v := i.EnvVar; v != "" {
		usage += fmt.Sprintf(" This option can also be specified with the %s "+
			"environment variable.", v)
	}

	fv := &flagValue[T]{
		target:    i.Target,
		hidden:    i.Hidden,
		isBool:    i.IsBool,
		example:   example,
		parser:    i.Parser,
		printer:   i.Printer,
		predictor: predictor,
		setter:    setter,
		aliases:   i.Aliases,
	}
	f.flagNames = append(f.flagNames, i.Name)
	f.flagSet.Var(fv, i.Name, usage)

	// Aliases are registered on the flag set but skipped by help.
	for _, alias := range i.Aliases {
		f.flagSet.Var(fv, alias, "")
	}
}

var _ Value = (*flagValue[any])(nil)

type flagValue[T any] struct {
	target  *T
	hidden  bool
	isBool  bool
	example string

	parser    ParserFunc[T]
	printer   PrinterFunc[T]
	setter    SetterFunc[T]
	predictor complete.Predictor
	aliases   []string
}

func (f *flagValue[T]) Set(s string) error {
	v, err := f.parser(s)
	if err != nil {
		return err
	}
	f.setter(f.target, v)
	return nil
}

func (f *flagValue[T]) Get() any                      { return *f.target }
func (f *flagValue[T]) Aliases() []string             { return f.aliases }
func (f *flagValue[T]) String() string                { return f.printer(*f.target) }
func (f *flagValue[T]) Example() string               { return f.example }
func (f *flagValue[T]) Hidden() bool                  { return f.hidden }
func (f *flagValue[T]) IsBoolFlag() bool              { return f.isBool }
func (f *flagValue[T]) Predictor() complete.Predictor { return f.predictor }

// TypedVar is the definition of a flag of a built-in type. The parser and
// printer are supplied by the matching FlagSection method.
type TypedVar[T any] struct {
	Name    string
	Aliases []string
	Usage   string
	Example string
	Default T
	Hidden  bool
	EnvVar  string
	Predict complete.Predictor
	Target  *T
}

func (i *TypedVar[T]) toVar(parser ParserFunc[T], printer PrinterFunc[T]) *Var[T] {
	return &Var[T]{
		Name:    i.Name,
		Aliases: i.Aliases,
		Usage:   i.Usage,
		Example: i.Example,
		Default: i.Default,
		Hidden:  i.Hidden,
		EnvVar:  i.EnvVar,
		Predict: i.Predict,
		Target:  i.Target,
		Parser:  parser,
		Printer: printer,
	}
}

type (
	BoolVar        = TypedVar[bool]
	DurationVar    = TypedVar[time.Duration]
	IntVar         = TypedVar[int]
	StringVar      = TypedVar[string]
	StringSliceVar = TypedVar[[]string]
	StringMapVar   = TypedVar[map[string]string]
)

// BoolVar creates a boolean flag. By convention the default is false, so name
// flags for the non-default behavior (e.g. -no-hooks).
func (f *FlagSection) BoolVar(i *BoolVar) {
	v := i.toVar(strconv.ParseBool, strconv.FormatBool)
	v.IsBool = true
	Flag(f, v)
}

// DurationVar creates a flag parsed by [time.ParseDuration].
func (f *FlagSection) DurationVar(i *DurationVar) {
	printer := func(v time.Duration) string {
		if v == 0 {
			return ""
		}
		return v.String()
	}
	Flag(f, i.toVar(time.ParseDuration, printer))
}

// IntVar creates a base 10 integer flag.
func (f *FlagSection) IntVar(i *IntVar) {
	parser := func(s string) (int, error) {
		v, err := strconv.ParseInt(s, 10, strconv.IntSize)
		return int(v), err
	}
	Flag(f, i.toVar(parser, strconv.Itoa))
}

// StringVar creates a string flag.
func (f *FlagSection) StringVar(i *StringVar) {
	parser := func(s string) (string, error) { return s, nil }
	printer := func(v string) string { return v }
	Flag(f, i.toVar(parser, printer))
}

// StringSliceVar creates a repeatable flag. Each occurrence may hold a comma
// separated list; values are appended in order.
func (f *FlagSection) StringSliceVar(i *StringSliceVar) {
	parser := func(s string) ([]string, error) {
		final := make([]string, 0)
		for _, part := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				final = append(final, trimmed)
			}
		}
		return final, nil
	}
	printer := func(v []string) string { return strings.Join(v, ",") }

	v := i.toVar(parser, printer)
	v.Setter = func(cur *[]string, val []string) { *cur = append(*cur, val...) }
	Flag(f, v)
}

// StringMapVar creates a repeatable key=value flag. Later keys overwrite
// earlier ones.
func (f *FlagSection) StringMapVar(i *StringMapVar) {
	parser := func(s string) (map[string]string, error) {
		k, v, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("missing = in KV pair %q", s)
		}
		return map[string]string{k: v}, nil
	}
	printer := func(m map[string]string) string {
		list := make([]string, 0, len(m))
		for k, v := range m {
			list = append(list, k+"="+v)
		}
		sort.Strings(list)
		return strings.Join(list, ",")
	}

	v := i.toVar(parser, printer)
	v.Setter = func(cur *map[string]string, val map[string]string) {
		if *cur == nil {
			*cur = make(map[string]string, len(val))
		}
		for k, v := range val {
			(*cur)[k] = v
		}
	}
	Flag(f, v)
}

// LogLevelVar defines the -log-level flag, which changes the level of Logger
// in place.
type LogLevelVar struct {
	Logger *slog.Logger
}

// LogLevelVar creates the -log-level (-l) flag.
func (f *FlagSection) LogLevelVar(i *LogLevelVar) {
	levelNames := logging.LevelNames()

	// The target is never read; the setter applies the level to the logger. The
	// logger keeps its level until the flag is actually given.
	var fake slog.Level

	Flag(f, &Var[slog.Level]{
		Name:    "log-level",
		Aliases: []string{"l"},
		Usage: `Sets the logging verbosity. Valid values include: ` +
			strings.Join(levelNames, ",") + `.`,
		Example: "warning",
		Default: logging.LevelInfo,
		Predict: predict.Set(levelNames),
		Target:  &fake,
		Parser:  logging.LookupLevel,
		Printer: logging.LevelString,
		Setter: func(_ *slog.Level, val slog.Level) {
			logging.SetLevel(i.Logger, val)
		},
	})
}

// wrapAtLengthWithPadding wraps s at maxLineLength, indenting every line by
// pad spaces.
func wrapAtLengthWithPadding(s string, pad int) string {
	wrapped := text.Wrap(s, maxLineLength-pad)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}
