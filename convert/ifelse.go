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

	"github.com/pkg/errors"
	"github.com/graphlift/graphlift/base/uname"
	"github.com/graphlift/graphlift/convert/analysis"
	"github.com/graphlift/graphlift/convert/api"
	"golang.org/x/tools/go/ast/astutil"
)

// ifElseTransformer rewrites if statements whose test depends on graph
// values into calls to the branch-selection primitive. Tests decidable
// on host values are left untouched: they run as host control flow and
// never appear in the generated graph.
type ifElseTransformer struct {
	cls   *api.Classifier
	an    *analysis.Analysis
	names *uname.Unique

	pending pendingInserts
}

func newIfElseTransformer(an *analysis.Analysis, cls *api.Classifier, names *uname.Unique) (*ifElseTransformer, error) {
	if an == nil || an.Root == nil {
		return nil, errors.Errorf("control-flow transformer requires an analyzed wrapper tree, got %v", an)
	}
	if _, err := an.FuncScope(); err != nil {
		return nil, err
	}
	return &ifElseTransformer{
		cls:     cls,
		an:      an,
		names:   names,
		pending: make(pendingInserts),
	}, nil
}

// undecidable resolves the condition against the scope of the function
// actually containing the statement, so a nested literal shadowing an
// outer tensor name with a host value keeps its host control flow.
func (t *ifElseTransformer) undecidable(at ast.Node, cond ast.Expr) bool {
	scope, ok := t.an.EnclosingScope(at)
	return ok && t.an.IsUndecidable(scope, cond)
}

func (t *ifElseTransformer) transform(file *ast.File) {
	astutil.Apply(file, t.pre, t.post)
	t.pending.splice(file)
}

// pre normalizes else-if chains that will be rewritten: an if statement
// in an else clause has no enclosing statement sequence, so it is
// wrapped into a block before its rewrite needs an insertion point.
// Chains with only decidable tests are left exactly as written.
func (t *ifElseTransformer) pre(c *astutil.Cursor) bool {
	stmt, ok := c.Node().(*ast.IfStmt)
	if !ok {
		return true
	}
	elseIf, ok := stmt.Else.(*ast.IfStmt)
	if ok && t.containsUndecidableIf(elseIf) {
		stmt.Else = &ast.BlockStmt{List: []ast.Stmt{elseIf}}
	}
	return true
}

func (t *ifElseTransformer) containsUndecidableIf(root ast.Node) bool {
	found := false
	ast.Inspect(root, func(n ast.Node) bool {
		stmt, ok := n.(*ast.IfStmt)
		if ok && stmt.Init == nil && t.undecidable(stmt, stmt.Cond) {
			found = true
		}
		return !found
	})
	return found
}

// post runs after the children of a node have been rewritten, so nested
// conditionals are extracted before their enclosing one.
func (t *ifElseTransformer) post(c *astutil.Cursor) bool {
	switch n := c.Node().(type) {
	case *ast.CallExpr:
		// Drop the host-array accessor: indexing works directly on
		// the graph tensor, t.Array()[i] becomes t[i].
		if t.cls.IsHostAccessor(n) {
			c.Replace(n.Fun.(*ast.SelectorExpr).X)
		}
	case *ast.IfStmt:
		if n.Init == nil && t.undecidable(n, n.Cond) {
			t.rewriteIf(c, n)
		}
	}
	return true
}

func (t *ifElseTransformer) rewriteIf(c *astutil.Cursor, stmt *ast.IfStmt) {
	thenBody := stmt.Body.List
	var elseBody []ast.Stmt
	switch e := stmt.Else.(type) {
	case *ast.BlockStmt:
		elseBody = e.List
	case nil:
	case ast.Stmt:
		elseBody = []ast.Stmt{e}
	}
	retNames := mergeNames(assignedNames(thenBody), assignedNames(elseBody))
	// Settled before extraction downgrades the branch-local defines.
	toks := make(map[string]token.Token)
	firstAssignTok(thenBody, toks)
	firstAssignTok(elseBody, toks)
	tok := resultTok(retNames, toks)

	graphPkg := t.cls.GraphPkg()
	trueName := t.names.Name("trueFn")
	falseName := t.names.Name("falseFn")
	trueDef := defineStmt(trueName, extractFunc(graphPkg, retNames, localRetNames(retNames, thenBody, toks), thenBody))
	falseDef := defineStmt(falseName, extractFunc(graphPkg, retNames, localRetNames(retNames, elseBody, toks), elseBody))

	cond := condStmt(graphPkg, retNames, tok, stmt.Cond, trueName, falseName)
	c.Replace(cond)
	t.pending[cond] = []ast.Stmt{trueDef, falseDef}
}
