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

package argspec

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abcxyz/commander/internal/testutil"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec string
		exp  *Argument
		err  string
	}{
		{
			name: "required_flagged_string",
			spec: "STRING <-u username> {User}",
			exp: &Argument{
				Type:        TypeString,
				Name:        "username",
				Mark:        "-u",
				Required:    true,
				Description: "User",
			},
		},
		{
			name: "optional_flagged_int_default",
			spec: "INT [-t timeout] (10) {Seconds to wait}",
			exp: &Argument{
				Type:        TypeInt,
				Name:        "timeout",
				Mark:        "-t",
				Default:     "10",
				HasDefault:  true,
				Description: "Seconds to wait",
			},
		},
		{
			name: "positional",
			spec: "STRING <cmd> {Command line}",
			exp: &Argument{
				Type:        TypeString,
				Name:        "cmd",
				Required:    true,
				Description: "Command line",
			},
		},
		{
			name: "bare_flag",
			spec: "BOOL [-v]",
			exp: &Argument{
				Type: TypeBool,
				Name: "-v",
				Mark: "-v",
			},
		},
		{
			name: "slash_flag",
			spec: "BOOL [/s] {Recurse}",
			exp: &Argument{
				Type:        TypeBool,
				Name:        "/s",
				Mark:        "/s",
				Description: "Recurse",
			},
		},
		{
			name: "file",
			spec: "FILE <path>",
			exp: &Argument{
				Type:     TypeFile,
				Name:     "path",
				Required: true,
			},
		},
		{
			name: "lowercase_type_and_no_space",
			spec: "string[note](hello world)",
			exp: &Argument{
				Type:       TypeString,
				Name:       "note",
				Default:    "hello world",
				HasDefault: true,
			},
		},
		{
			name: "empty_default",
			spec: "STRING [path] ()",
			exp: &Argument{
				Type:       TypeString,
				Name:       "path",
				HasDefault: true,
			},
		},
		{
			name: "surrounding_whitespace",
			spec: "  INT   <pid>   {Process id}  ",
			exp: &Argument{
				Type:        TypeInt,
				Name:        "pid",
				Required:    true,
				Description: "Process id",
			},
		},
		{
			name: "empty",
			spec: "",
			err:  "expected type at offset 0",
		},
		{
			name: "unknown_type",
			spec: "FLOAT <x>",
			err:  `unknown type "FLOAT" at offset 0`,
		},
		{
			name: "missing_group",
			spec: "STRING x",
			err:  "expected '<' or '[' at offset 7",
		},
		{
			name: "unterminated_group",
			spec: "STRING <x",
			err:  `unterminated '<' at offset 7`,
		},
		{
			name: "empty_group",
			spec: "STRING <>",
			err:  "empty argument name at offset 7",
		},
		{
			name: "too_many_words",
			spec: "STRING <-u user name>",
			err:  "too many words",
		},
		{
			name: "unterminated_description",
			spec: "STRING <x> {oops",
			err:  `unterminated '{' at offset 11`,
		},
		{
			name: "trailing_garbage",
			spec: "STRING <x> junk",
			err:  `unexpected "junk" at offset 11`,
		},
		{
			name: "positional_bool",
			spec: "BOOL <verbose>",
			err:  "must be a flag",
		},
		{
			name: "bad_int_default",
			spec: "INT [-n count] (many)",
			err:  `default "many" is not an integer`,
		},
		{
			name: "bad_bool_default",
			spec: "BOOL [-f] (maybe)",
			err:  `default "maybe" is not a boolean`,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tc.spec)
			if diff := testutil.DiffErrString(err, tc.err); diff != "" {
				t.Fatal(diff)
			}
			if err != nil {
				if !errors.Is(err, ErrParse) {
					t.Errorf("expected %v to wrap ErrParse", err)
				}
				return
			}

			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want, +got):\n%s", tc.spec, diff)
			}
		})
	}
}

func TestArgument_String(t *testing.T) {
	t.Parallel()

	specs := []string{
		"STRING <-u username> {User}",
		"INT [-t timeout] (10)",
		"BOOL [-v]",
		"FILE <path> {Local file}",
		"STRING [note] (a b c) {Free text}",
	}

	for _, spec := range specs {
		spec := spec

		t.Run(spec, func(t *testing.T) {
			t.Parallel()

			arg, err := Parse(spec)
			if err != nil {
				t.Fatal(err)
			}
			if got, want := arg.String(), spec; got != want {
				t.Errorf("expected %q to be %q", got, want)
			}

			again, err := Parse(arg.String())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(arg, again); diff != "" {
				t.Errorf("reparse mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestArgument_Usage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		spec string
		exp  string
	}{
		{spec: "STRING <-u username>", exp: "<-u username>"},
		{spec: "INT [-t timeout]", exp: "[-t timeout]"},
		{spec: "BOOL [-v]", exp: "[-v]"},
		{spec: "STRING <cmd>", exp: "<cmd>"},
		{spec: "STRING [note]", exp: "[note]"},
	}

	for _, tc := range cases {
		if got := MustParse(tc.spec).Usage(); got != tc.exp {
			t.Errorf("Usage(%q): expected %q to be %q", tc.spec, got, tc.exp)
		}
	}
}
