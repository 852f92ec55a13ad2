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

// Package api classifies calls against the eager and the graph API.
//
// The eager API executes operations immediately on concrete tensors.
// The graph API builds a deferred computation graph of symbolic
// placeholders. The classifier answers which of the two (if any) a call
// belongs to, and knows which eager layer constructors have a graph
// equivalent.
package api

import (
	"go/ast"
	"go/types"

	"github.com/pkg/errors"
	"golang.org/x/mod/module"
)

// Names of the entry points into the eager and the graph API.
const (
	// TensorConstructor wraps a host value into an eager tensor.
	TensorConstructor = "ToTensor"
	// GraphInput declares a graph input fed at execution time.
	GraphInput = "Input"
	// GraphShape is the symbolic shape accessor of the graph API.
	GraphShape = "Shape"
	// GraphCond is the branch-selection primitive of the graph API.
	GraphCond = "Cond"
	// GraphWhile is the loop primitive of the graph API.
	GraphWhile = "While"
	// ShapeAttribute is the shape attribute of an eager tensor.
	ShapeAttribute = "Shape"
	// HostAccessor converts a tensor into a host array.
	HostAccessor = "Array"
)

// Eager layer types with a graph equivalent. Constructing one of these
// eagerly and calling the instance is rewritten into a single call to
// the graph function of the same name.
var staticEquivalents = map[string]string{
	"Linear":    "Linear",
	"Conv2D":    "Conv2D",
	"Pool2D":    "Pool2D",
	"BatchNorm": "BatchNorm",
	"Embedding": "Embedding",
}

// Classifier classifies call nodes against the eager and graph API.
type Classifier struct {
	eagerPkg string
	graphPkg string

	err error
}

// Option configures a classifier.
type Option func(*Classifier)

// WithEagerPackage sets the package identifier and import path of the eager API.
func WithEagerPackage(name, path string) Option {
	return func(c *Classifier) {
		c.eagerPkg = name
		c.checkPath(path)
	}
}

// WithGraphPackage sets the package identifier and import path of the graph API.
func WithGraphPackage(name, path string) Option {
	return func(c *Classifier) {
		c.graphPkg = name
		c.checkPath(path)
	}
}

func (c *Classifier) checkPath(path string) {
	if err := module.CheckImportPath(path); err != nil {
		c.err = errors.Errorf("invalid API import path %q: %v", path, err)
	}
}

// New returns a classifier for the given API packages.
func New(opts ...Option) (*Classifier, error) {
	c := &Classifier{eagerPkg: "eager", graphPkg: "graph"}
	for _, opt := range opts {
		opt(c)
	}
	if c.err != nil {
		return nil, c.err
	}
	return c, nil
}

// Default returns a classifier with the default API packages.
func Default() *Classifier {
	c, _ := New()
	return c
}

// EagerPkg returns the package identifier of the eager API.
func (c *Classifier) EagerPkg() string { return c.eagerPkg }

// GraphPkg returns the package identifier of the graph API.
func (c *Classifier) GraphPkg() string { return c.graphPkg }

// calleePkgFunc splits the callee of a call into its package identifier
// and function name. Returns false for callees that are not a simple
// pkg.Func selector (for example a call of a local value).
func calleePkgFunc(call *ast.CallExpr) (pkg, fun string, ok bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", "", false
	}
	id, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", "", false
	}
	return id.Name, sel.Sel.Name, true
}

// CalleeText renders the callee of a call back to source text,
// for use as a map key when no stronger identity is available.
func CalleeText(call *ast.CallExpr) string {
	return types.ExprString(call.Fun)
}

// IsGraphAPI returns true if the call targets the graph API.
func (c *Classifier) IsGraphAPI(call *ast.CallExpr) bool {
	pkg, _, ok := calleePkgFunc(call)
	return ok && pkg == c.graphPkg
}

// IsEagerAPI returns true if the call targets the eager API.
func (c *Classifier) IsEagerAPI(call *ast.CallExpr) bool {
	pkg, _, ok := calleePkgFunc(call)
	return ok && pkg == c.eagerPkg
}

// IsTensorConstructor returns true if the call wraps a host value into
// an eager tensor.
func (c *Classifier) IsTensorConstructor(call *ast.CallExpr) bool {
	pkg, fun, ok := calleePkgFunc(call)
	return ok && pkg == c.eagerPkg && fun == TensorConstructor
}

// StaticEquivalent returns the graph function replacing an eager layer
// constructor, or false if the layer has no graph equivalent.
func (c *Classifier) StaticEquivalent(call *ast.CallExpr) (string, bool) {
	pkg, fun, ok := calleePkgFunc(call)
	if !ok || pkg != c.eagerPkg {
		return "", false
	}
	static, ok := staticEquivalents[fun]
	return static, ok
}

// IsControlPrimitive returns true for the control-flow primitives of
// the graph API. Their operands are produced by earlier rewrites and
// are never rewritten again.
func (c *Classifier) IsControlPrimitive(call *ast.CallExpr) bool {
	pkg, fun, ok := calleePkgFunc(call)
	return ok && pkg == c.graphPkg && (fun == GraphCond || fun == GraphWhile)
}

// IsHostAccessor returns true for calls of the tensor-to-host-array
// accessor, like t.Array().
func (c *Classifier) IsHostAccessor(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	return ok && sel.Sel.Name == HostAccessor && len(call.Args) == 0
}
