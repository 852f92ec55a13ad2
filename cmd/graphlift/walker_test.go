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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graphlift/graphlift/convert/api"
	"github.com/stretchr/testify/require"
)

// memWriter records converted files instead of writing them to disk.
type memWriter struct {
	files map[string]string
}

func (w *memWriter) Write(path string, content string) error {
	if w.files == nil {
		w.files = make(map[string]string)
	}
	w.files[path] = content
	return nil
}

func (w *memWriter) Close() error { return nil }

const markedSrc = `package model

//graphlift:convert
func f(x eager.Tensor, v []float64) eager.Tensor {
	t := eager.ToTensor(v)
	r := graph.Add(t, x)
	return r
}
`

const unmarkedSrc = `package model

func g(x eager.Tensor) eager.Tensor {
	return x
}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestWalkConvertsMarkedFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"model.go":      markedSrc,
		"helper.go":     unmarkedSrc,
		"model_test.go": markedSrc,
	})
	fw := &memWriter{}
	w := NewWalker(fw, api.Default(), false)
	require.NoError(t, filepath.Walk(dir, w.Visit))
	require.NoError(t, w.Err())
	require.NoError(t, w.Close())

	require.Len(t, fw.files, 1)
	out, ok := fw.files[filepath.Join(dir, "model_graph.go")]
	require.True(t, ok, "converted file not written, got %v", fw.files)
	require.Contains(t, out, "graph.Input(v)")
	require.NotContains(t, out, "graphlift:convert")
}

func TestWalkSkipsUnparsableFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.go": markedSrc,
		"bad.go":  "package broken\n\n//graphlift:convert\nfunc {",
	})
	fw := &memWriter{}
	w := NewWalker(fw, api.Default(), false)
	require.NoError(t, filepath.Walk(dir, w.Visit))
	require.NoError(t, w.Err())
	require.Len(t, fw.files, 1)
}

func TestDryRunWriter(t *testing.T) {
	fw := &memWriter{}
	w := NewWalker(fw, api.Default(), true)
	if _, ok := w.fw.(stdoutWriter); !ok {
		t.Errorf("dry run should write to stdout, got %T", w.fw)
	}
}

func TestIsEagerFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "model.go", want: true},
		{name: "model_test.go", want: false},
		{name: "model_graph.go", want: false},
		{name: "README.md", want: false},
	}
	for _, test := range tests {
		info := fakeInfo{name: test.name}
		if got := isEagerFile(info); got != test.want {
			t.Errorf("isEagerFile(%s) = %v, want %v", test.name, got, test.want)
		}
	}
	if isEagerFile(fakeInfo{name: "dir.go", dir: true}) {
		t.Errorf("a directory accepted as an eager file")
	}
}

type fakeInfo struct {
	name string
	dir  bool
}

func (fi fakeInfo) IsDir() bool  { return fi.dir }
func (fi fakeInfo) Name() string { return fi.name }

func TestHasMarkedFunc(t *testing.T) {
	if !hasMarkedFunc(markedSrc) {
		t.Errorf("directive not detected in a marked source")
	}
	if hasMarkedFunc(unmarkedSrc) {
		t.Errorf("directive detected in an unmarked source")
	}
	if hasMarkedFunc(strings.ReplaceAll(markedSrc, "graphlift:convert", "graphlift: convert")) {
		t.Errorf("directive with a space accepted")
	}
}
