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

package api_test

import (
	"go/ast"
	"go/parser"
	"testing"

	"github.com/graphlift/graphlift/convert/api"
)

func parseCall(t *testing.T, src string) *ast.CallExpr {
	t.Helper()
	expr, err := parser.ParseExpr(src)
	if err != nil {
		t.Fatalf("cannot parse %q: %v", src, err)
	}
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		t.Fatalf("%q is not a call", src)
	}
	return call
}

func TestClassify(t *testing.T) {
	cls := api.Default()
	tests := []struct {
		src     string
		graph   bool
		eager   bool
		ctor    bool
		control bool
	}{
		{src: "graph.Sum(x)", graph: true},
		{src: "graph.Input(v)", graph: true},
		{src: "graph.Cond(test, a, b)", graph: true, control: true},
		{src: "graph.While(cond, body)", graph: true, control: true},
		{src: "eager.ToTensor(v)", eager: true, ctor: true},
		{src: "eager.Linear(10, 5)", eager: true},
		{src: "other.Sum(x)"},
		{src: "f(x)"},
		{src: "t.Sum()"},
	}
	for _, test := range tests {
		call := parseCall(t, test.src)
		if got := cls.IsGraphAPI(call); got != test.graph {
			t.Errorf("IsGraphAPI(%s) = %v, want %v", test.src, got, test.graph)
		}
		if got := cls.IsEagerAPI(call); got != test.eager {
			t.Errorf("IsEagerAPI(%s) = %v, want %v", test.src, got, test.eager)
		}
		if got := cls.IsTensorConstructor(call); got != test.ctor {
			t.Errorf("IsTensorConstructor(%s) = %v, want %v", test.src, got, test.ctor)
		}
		if got := cls.IsControlPrimitive(call); got != test.control {
			t.Errorf("IsControlPrimitive(%s) = %v, want %v", test.src, got, test.control)
		}
	}
}

func TestStaticEquivalent(t *testing.T) {
	cls := api.Default()
	tests := []struct {
		src  string
		want string
		ok   bool
	}{
		{src: "eager.Linear(10, 5)", want: "Linear", ok: true},
		{src: "eager.Conv2D(3, 16, 3)", want: "Conv2D", ok: true},
		{src: "eager.BatchNorm(16)", want: "BatchNorm", ok: true},
		{src: "eager.ToTensor(v)"},
		{src: "graph.Linear(x, 10, 5)"},
		{src: "custom.Linear(10, 5)"},
	}
	for _, test := range tests {
		got, ok := cls.StaticEquivalent(parseCall(t, test.src))
		if got != test.want || ok != test.ok {
			t.Errorf("StaticEquivalent(%s) = %q, %v, want %q, %v", test.src, got, ok, test.want, test.ok)
		}
	}
}

func TestIsHostAccessor(t *testing.T) {
	cls := api.Default()
	tests := []struct {
		src  string
		want bool
	}{
		{src: "t.Array()", want: true},
		{src: "m.field.Array()", want: true},
		{src: "t.Array(0)"},
		{src: "t.Sum()"},
		{src: "Array()"},
	}
	for _, test := range tests {
		if got := cls.IsHostAccessor(parseCall(t, test.src)); got != test.want {
			t.Errorf("IsHostAccessor(%s) = %v, want %v", test.src, got, test.want)
		}
	}
}

func TestCustomPackages(t *testing.T) {
	cls, err := api.New(
		api.WithEagerPackage("dyn", "example.org/ml/dyn"),
		api.WithGraphPackage("sym", "example.org/ml/sym"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if !cls.IsTensorConstructor(parseCall(t, "dyn.ToTensor(v)")) {
		t.Errorf("dyn.ToTensor not recognized as tensor constructor")
	}
	if !cls.IsGraphAPI(parseCall(t, "sym.Sum(x)")) {
		t.Errorf("sym.Sum not recognized as a graph call")
	}
	if cls.IsEagerAPI(parseCall(t, "eager.ToTensor(v)")) {
		t.Errorf("default package still recognized after override")
	}
}

func TestInvalidImportPath(t *testing.T) {
	_, err := api.New(api.WithEagerPackage("dyn", "not a path"))
	if err == nil {
		t.Errorf("New accepted an invalid import path")
	}
}

func TestCalleeText(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "f(x)", want: "f"},
		{src: "m.Forward(x)", want: "m.Forward"},
		{src: "graph.Sum(x)", want: "graph.Sum"},
	}
	for _, test := range tests {
		if got := api.CalleeText(parseCall(t, test.src)); got != test.want {
			t.Errorf("CalleeText(%s) = %q, want %q", test.src, got, test.want)
		}
	}
}
