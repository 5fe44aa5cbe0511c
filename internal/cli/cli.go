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

// Package cli is a small framework for the commander binary. Every command
// starts at a [RootCommand] which holds one or more subcommands; a subcommand
// may itself be a [RootCommand] (e.g. "commander catalog validate").
//
// Commands are created lazily through [CommandFactory] so that only the
// command being run is instantiated:
//
//	var rootCmd = func() cli.Command {
//	  return &cli.RootCommand{
//	    Name:    "commander",
//	    Version: version.HumanVersion,
//	    Commands: map[string]cli.CommandFactory{
//	      "dispatch": func() cli.Command {
//	        return &DispatchCommand{}
//	      },
//	    },
//	  }
//	}
//
// Flags are declared in sections on a [FlagSet] and rendered into help output
// by the framework. The same definitions drive shell completion through
// [RootCommand.Completions].
package cli
