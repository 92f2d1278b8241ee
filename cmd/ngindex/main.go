// Copyright 2016 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command ngindex builds and searches an n-gram directory index: a thin
// flag-driven wrapper around the dirindex and ngram packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/sourcegraph/ngramidx/internal/log"
)

func main() {
	// Tune GOMAXPROCS to match a container CPU quota.
	_, _ = maxprocs.Set()

	root := &ffcli.Command{
		Name:       "ngindex",
		ShortUsage: "ngindex <subcommand> [flags]",
		Subcommands: []*ffcli.Command{
			buildCmd(),
			searchCmd(),
		},
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
	}

	if err := root.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var logger = log.Scoped("ngindex")
