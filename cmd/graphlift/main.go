// Copyright 2025 The GraphLift Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command graphlift converts functions written against the eager API
// into their graph-building form. Converted code is written next to its
// source with a _graph.go suffix.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/graphlift/graphlift/convert/api"
)

var (
	path   = flag.String("path", "", "file or folder containing the eager code to convert")
	dryRun = flag.Bool("dry_run", true, "output on the standard output if true")
)

func run() error {
	if *path == "" {
		return fmt.Errorf("no path specified: please use --path to specify a target")
	}
	w := NewWalker(diskWriter{}, api.Default(), *dryRun)
	defer w.Close()
	if err := filepath.Walk(*path, w.Visit); err != nil {
		return err
	}
	return w.Err()
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
