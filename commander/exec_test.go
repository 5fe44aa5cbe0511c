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

package commander

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitItems(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "  ", want: nil},
		{in: "INT 1", want: []string{"INT 1"}},
		{in: "INT 1, CSTR {a}", want: []string{"INT 1", " CSTR {a}"}},
		{in: `CSTR "x, y", INT 2`, want: []string{`CSTR "x, y"`, " INT 2"}},
		{in: "CSTR {a,b}, INT 2", want: []string{"CSTR {a,b}", " INT 2"}},
	}

	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, splitItems(tc.in)); diff != "" {
			t.Errorf("splitItems(%q) mismatch (-want, +got):\n%s", tc.in, diff)
		}
	}
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	texts := map[string]string{"pid": "42", "cmd": "whoami /all"}

	cases := []struct {
		in   string
		want string
	}{
		{in: "no placeholders", want: "no placeholders"},
		{in: "kill {pid}", want: "kill 42"},
		{in: "{cmd} as {pid}", want: "whoami /all as 42"},
		{in: "keep {other} and {pid}", want: "keep {other} and 42"},
		{in: "nested {{pid}}", want: "nested {42}"},
		{in: "open {pid", want: "open {pid"},
	}

	for _, tc := range cases {
		if got := substitute(tc.in, texts); got != tc.want {
			t.Errorf("substitute(%q): expected %q to be %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderMessage(t *testing.T) {
	t.Parallel()

	texts := map[string]string{"pid": "42", "path": "~/a.bin"}

	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "Killing <pid>", want: "Killing 42"},
		{in: "Uploading <path> as <pid> (<unknown>)", want: "Uploading ~/a.bin as 42 (<unknown>)"},
	}

	for _, tc := range cases {
		if got := renderMessage(tc.in, texts); got != tc.want {
			t.Errorf("renderMessage(%q): expected %q to be %q", tc.in, got, tc.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "{pid}", want: "pid", wantOK: true},
		{in: "{}"},
		{in: "pid"},
		{in: "{a b}"},
		{in: "{pid}x"},
	}

	for _, tc := range cases {
		got, ok := placeholder(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("placeholder(%q): got (%q, %t), want (%q, %t)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
