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

package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sourcegraph/ngramidx/dirindex"
)

func searchCmd() *ffcli.Command {
	fs := flag.NewFlagSet("ngindex search", flag.ExitOnError)
	var (
		workDir     = fs.String("work_dir", filepath.Join(".", ".ngindex"), "parent of the sidecar mirror tree")
		seqLen      = fs.Int("sequence_length", 3, "n-gram width in bytes")
		compression = fs.Float64("compression", 1.0, "alphabet compression factor (>= 1.0)")
		okChars     = fs.String("ok_chars", "abcdefghijklmnopqrstuvwxyz0123456789.-_", "indexable alphabet")
		content     = fs.Bool("search_content", true, "confirm matches against file content, not just names")
	)

	return &ffcli.Command{
		Name:       "search",
		ShortUsage: "ngindex search [flags] <dir> <query>",
		ShortHelp:  "search a previously built sidecar index",
		FlagSet:    fs,
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("search takes a directory and a query argument")
			}

			idx, err := dirindex.New(dirindex.Options{
				Dir:            args[0],
				WorkDir:        *workDir,
				SequenceLength: *seqLen,
				Compression:    *compression,
				OkChars:        *okChars,
				IndexContent:   *content,
				MaxFileSize:    dirindex.Unbounded,
			})
			if err != nil {
				return err
			}

			return idx.Search(args[1], func(path string) {
				fmt.Println(path)
			}, *content)
		},
	}
}
