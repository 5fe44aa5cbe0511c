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

package hook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFunc(t *testing.T) {
	t.Parallel()

	var got *Request
	h := Func(func(_ context.Context, req *Request) (string, error) {
		got = req
		return "denied", nil
	})

	req := &Request{
		AgentID: "a1",
		Ref:     "check",
		Line:    "shell whoami",
		Task:    json.RawMessage(`{"command":"shell"}`),
		Args:    []string{"whoami"},
	}
	out, err := h.Call(t.Context(), req)
	if err != nil {
		t.Fatal(err)
	}
	if out != "denied" {
		t.Errorf("expected %q to be %q", out, "denied")
	}
	if diff := cmp.Diff(req, got); diff != "" {
		t.Errorf("request mismatch (-want, +got):\n%s", diff)
	}
}

func TestSuppress(t *testing.T) {
	t.Parallel()

	out, err := Suppress.Call(t.Context(), &Request{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("expected empty result, got %q", out)
	}
}

func TestRequest_json(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(&Request{
		AgentID: "a1",
		Line:    "whoami",
		Task:    json.RawMessage(`{"command":"whoami"}`),
		Args:    []string{},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := `{"agent_id":"a1","line":"whoami","task":{"command":"whoami"},"args":[]}`
	if got := string(b); got != want {
		t.Errorf("expected %s to be %s", got, want)
	}
}
