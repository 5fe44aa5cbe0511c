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

// Package argspec parses compact argument declarations such as:
//
//	STRING <-u username> {User to impersonate}
//	INT [-t timeout] (10) {Seconds to wait}
//	BOOL [-v]
//	FILE <path>
//
// The declaration starts with a type keyword, followed by a bracket group
// which is either required (<...>) or optional ([...]). A group containing a
// space declares a flag mark and a field name; a group without a space is
// either a bare flag (it begins with "-" or "/") or a positional name. An
// optional parenthesized default and braced description may follow.
package argspec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is the sentinel wrapped by every [ParseError].
var ErrParse = errors.New("invalid argument spec")

// Type is the value type of an argument.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeBool
	TypeFile
)

// String returns the declaration keyword of the type.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "STRING"
	case TypeInt:
		return "INT"
	case TypeBool:
		return "BOOL"
	case TypeFile:
		return "FILE"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// LookupType returns the type for the given keyword. Keywords are case
// insensitive.
func LookupType(s string) (Type, bool) {
	switch strings.ToUpper(s) {
	case "STRING":
		return TypeString, true
	case "INT":
		return TypeInt, true
	case "BOOL":
		return TypeBool, true
	case "FILE":
		return TypeFile, true
	default:
		return 0, false
	}
}

// Argument is one parsed argument declaration. Arguments are immutable after
// parsing.
type Argument struct {
	Type Type

	// Name is the field name used in the bound task. For bare flags it is the
	// flag itself (e.g. "-v").
	Name string

	// Mark is the literal flag token, e.g. "-u". It is empty for positional
	// arguments.
	Mark string

	Required bool

	// Default holds the declared default. HasDefault distinguishes "()" from no
	// default at all.
	Default    string
	HasDefault bool

	Description string
}

// Flagged reports whether the argument is identified by a mark rather than by
// position.
func (a *Argument) Flagged() bool {
	return a.Mark != ""
}

// Usage returns the bracket form used in usage lines, e.g. "<-u username>" or
// "[timeout]".
func (a *Argument) Usage() string {
	inner := a.Name
	if a.Flagged() && a.Mark != a.Name {
		inner = a.Mark + " " + a.Name
	}
	if a.Required {
		return "<" + inner + ">"
	}
	return "[" + inner + "]"
}

// String returns the canonical declaration. Parsing the result yields an equal
// argument.
func (a *Argument) String() string {
	var b strings.Builder
	b.WriteString(a.Type.String())
	b.WriteByte(' ')
	b.WriteString(a.Usage())
	if a.HasDefault {
		fmt.Fprintf(&b, " (%s)", a.Default)
	}
	if a.Description != "" {
		fmt.Fprintf(&b, " {%s}", a.Description)
	}
	return b.String()
}

// ParseError describes where a declaration failed to parse.
type ParseError struct {
	Spec   string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Msg, e.Offset, e.Spec)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
