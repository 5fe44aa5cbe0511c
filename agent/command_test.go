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

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/abcxyz/commander/internal/testutil"
)

func TestCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		args    []string
		agentID string
		want    string
		wantErr string
	}{
		{
			name:    "prints_arch",
			args:    []string{"sh", "-c", `test "$0" = a1 && echo " x64 "`},
			agentID: "a1",
			want:    "x64",
		},
		{
			name:    "empty_is_unknown",
			args:    []string{"sh", "-c", "true"},
			agentID: "a1",
			wantErr: `"a1": unknown agent`,
		},
		{
			name:    "failure",
			args:    []string{"sh", "-c", "exit 3"},
			agentID: "a1",
			wantErr: `architecture lookup for "a1" failed`,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewCommand(tc.args...).Arch(t.Context(), tc.agentID)
			if diff := testutil.DiffErrString(err, tc.wantErr); diff != "" {
				t.Fatal(diff)
			}
			if got != tc.want {
				t.Errorf("expected %q to be %q", got, tc.want)
			}
		})
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := ArchFunc(func(context.Context, string) (string, error) { return "", boom })

	cases := []struct {
		name    string
		lookups []ArchLookup
		want    string
		wantErr error
	}{
		{
			name:    "first_known_wins",
			lookups: []ArchLookup{Static{"a2": "x86"}, Static{"a1": "x64"}, Static{"a1": "arm64"}},
			want:    "x64",
		},
		{
			name:    "none_known",
			lookups: []ArchLookup{Static{}, Static{"a2": "x86"}},
			wantErr: ErrUnknownAgent,
		},
		{
			name:    "empty",
			wantErr: ErrUnknownAgent,
		},
		{
			name:    "other_errors_stop",
			lookups: []ArchLookup{failing, Static{"a1": "x64"}},
			wantErr: boom,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Chain(tc.lookups...).Arch(t.Context(), "a1")
			if diff := testutil.DiffErrIs(err, tc.wantErr); diff != "" {
				t.Fatal(diff)
			}
			if got != tc.want {
				t.Errorf("expected %q to be %q", got, tc.want)
			}
		})
	}
}
