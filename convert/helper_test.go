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

package convert

import (
	"go/ast"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/graphlift/graphlift/base/fmterr"
	"github.com/graphlift/graphlift/base/uname"
	"github.com/graphlift/graphlift/convert/analysis"
	"github.com/graphlift/graphlift/convert/api"
)

func parseForTest(t *testing.T, src string) (*ast.File, *token.FileSet) {
	t.Helper()
	file, fset, err := parseSource(src)
	if err != nil {
		t.Fatalf("cannot parse test source: %v", err)
	}
	return file, fset
}

func namesForTest(file *ast.File) *uname.Unique {
	names := uname.New()
	ast.Inspect(file, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			names.Register(id.Name)
		}
		return true
	})
	return names
}

func analyzeForTest(t *testing.T, file *ast.File) *analysis.Analysis {
	t.Helper()
	an, err := analysis.Analyze(file, api.Default())
	if err != nil {
		t.Fatalf("cannot analyze test source: %v", err)
	}
	return an
}

// normalize formats a source through the renderer so that two sources
// can be compared independently of their original layout.
func normalize(t *testing.T, src string) string {
	t.Helper()
	file, fset := parseForTest(t, src)
	out, err := render(fset, file)
	if err != nil {
		t.Fatalf("cannot render source: %v", err)
	}
	return out
}

func cmpSource(t *testing.T, got, want string) {
	t.Helper()
	gotN := normalize(t, got)
	wantN := normalize(t, want)
	if gotN != wantN {
		t.Errorf("got:\n%s\nbut want:\n%s\ndiff:\n%s", gotN, wantN, cmp.Diff(gotN, wantN))
	}
}

func runIfElse(t *testing.T, src string) string {
	t.Helper()
	file, fset := parseForTest(t, src)
	tr, err := newIfElseTransformer(analyzeForTest(t, file), api.Default(), namesForTest(file))
	if err != nil {
		t.Fatalf("cannot build control-flow transformer: %v", err)
	}
	tr.transform(file)
	out, err := render(fset, file)
	if err != nil {
		t.Fatalf("cannot render transformed source: %v", err)
	}
	return out
}

func runAPICall(t *testing.T, src string) (string, *apiCallTransformer) {
	t.Helper()
	file, fset := parseForTest(t, src)
	var diags fmterr.Errors
	tr, err := newAPICallTransformer(analyzeForTest(t, file), api.Default(), namesForTest(file), fset, &diags)
	if err != nil {
		t.Fatalf("cannot build API call transformer: %v", err)
	}
	tr.transform(file)
	out, err := render(fset, file)
	if err != nil {
		t.Fatalf("cannot render transformed source: %v", err)
	}
	return out, tr
}

func runLoop(t *testing.T, src string) string {
	t.Helper()
	file, fset := parseForTest(t, src)
	tr, err := newLoopTransformer(analyzeForTest(t, file), api.Default(), namesForTest(file))
	if err != nil {
		t.Fatalf("cannot build iteration transformer: %v", err)
	}
	tr.transform(file)
	out, err := render(fset, file)
	if err != nil {
		t.Fatalf("cannot render transformed source: %v", err)
	}
	return out
}
