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

package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"strings"

	"github.com/graphlift/graphlift/convert"
	"github.com/graphlift/graphlift/convert/api"
	"go.uber.org/multierr"
)

// FileWriter writes a converted file given its content.
type FileWriter interface {
	Write(path string, content string) error
	Close() error
}

type stdoutWriter struct{}

func (stdoutWriter) Write(path string, content string) error {
	fmt.Println(path + ":")
	fmt.Println(content)
	return nil
}

func (stdoutWriter) Close() error {
	return nil
}

type diskWriter struct{}

func (diskWriter) Write(path string, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func (diskWriter) Close() error {
	return nil
}

// Walker walks across a file system to find files with functions marked
// for conversion.
type Walker struct {
	cls *api.Classifier
	fw  FileWriter

	errs error
}

// NewWalker returns a new walker.
func NewWalker(fw FileWriter, cls *api.Classifier, dryRun bool) *Walker {
	if dryRun {
		fw = stdoutWriter{}
	}
	return &Walker{cls: cls, fw: fw}
}

type fileInfo interface {
	IsDir() bool
	Name() string
}

func isEagerFile(fi fileInfo) bool {
	name := fi.Name()
	return !fi.IsDir() &&
		strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, "_graph.go")
}

// Visit converts a path. Errors of one file are collected and do not
// stop the walk.
func (w *Walker) Visit(path string, info fs.FileInfo, err error) error {
	if err != nil {
		return err
	}
	if !isEagerFile(info) {
		return nil
	}
	if err := w.convertFile(path); err != nil {
		w.errs = multierr.Append(w.errs, fmt.Errorf("%s: %w", path, err))
	}
	return nil
}

func (w *Walker) convertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !hasMarkedFunc(string(data)) {
		return nil
	}
	conv := convert.New(w.cls)
	out, err := conv.Convert(string(data))
	if err != nil {
		return err
	}
	outPath := strings.TrimSuffix(path, ".go") + "_graph.go"
	if err := w.fw.Write(outPath, out); err != nil {
		return err
	}
	name, err := conv.FuncName()
	if err != nil {
		return err
	}
	feeds, err := conv.FeedParamIndex()
	if err != nil {
		return err
	}
	fmt.Printf("%s: converted %s", path, name)
	for _, feed := range conv.FeedNames() {
		if idx, ok := feeds[feed]; ok {
			fmt.Printf(" %s->arg%d", feed, idx)
		}
	}
	fmt.Println()
	for _, diag := range conv.Diagnostics() {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, diag)
	}
	return nil
}

// hasMarkedFunc returns true if the source declares a function marked
// with the conversion directive.
func hasMarkedFunc(src string) bool {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return false
	}
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		for _, comment := range fn.Doc.List {
			if strings.HasPrefix(comment.Text, "//"+convert.Directive) {
				return true
			}
		}
	}
	return false
}

// Err returns the errors collected across the walk.
func (w *Walker) Err() error {
	return w.errs
}

// Close the walker.
func (w *Walker) Close() error {
	return w.fw.Close()
}
