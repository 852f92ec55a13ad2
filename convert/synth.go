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

	"github.com/graphlift/graphlift/convert/api"
)

func selector(pkg, name string) *ast.SelectorExpr {
	return &ast.SelectorExpr{X: ast.NewIdent(pkg), Sel: ast.NewIdent(name)}
}

func identList(names []string) []ast.Expr {
	exprs := make([]ast.Expr, len(names))
	for i, name := range names {
		exprs[i] = ast.NewIdent(name)
	}
	return exprs
}

// shapeCall builds the symbolic shape accessor graph.Shape(x) for a
// tensor shape attribute access x.Shape.
func shapeCall(graphPkg string, x ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{
		Fun:  selector(graphPkg, api.GraphShape),
		Args: []ast.Expr{cloneExpr(x)},
	}
}

// cloneExpr copies an expression so that a recorded origin node can be
// spliced at several use sites without sharing node identity.
func cloneExpr(e ast.Expr) ast.Expr {
	switch t := e.(type) {
	case *ast.Ident:
		return ast.NewIdent(t.Name)
	case *ast.BasicLit:
		o := *t
		return &o
	case *ast.SelectorExpr:
		return &ast.SelectorExpr{X: cloneExpr(t.X), Sel: ast.NewIdent(t.Sel.Name)}
	case *ast.IndexExpr:
		return &ast.IndexExpr{X: cloneExpr(t.X), Index: cloneExpr(t.Index)}
	case *ast.ParenExpr:
		return &ast.ParenExpr{X: cloneExpr(t.X)}
	case *ast.UnaryExpr:
		o := *t
		o.X = cloneExpr(t.X)
		return &o
	case *ast.BinaryExpr:
		o := *t
		o.X = cloneExpr(t.X)
		o.Y = cloneExpr(t.Y)
		return &o
	case *ast.CallExpr:
		args := make([]ast.Expr, len(t.Args))
		for i, a := range t.Args {
			args[i] = cloneExpr(a)
		}
		return &ast.CallExpr{Fun: cloneExpr(t.Fun), Args: args}
	}
	return e
}

// assignedNames returns the names assigned anywhere in the statements,
// in order of first assignment. Nested function literals keep their own
// scope and are not scanned.
func assignedNames(stmts []ast.Stmt) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(e ast.Expr) {
		id, ok := e.(*ast.Ident)
		if !ok || id.Name == "_" || seen[id.Name] {
			return
		}
		seen[id.Name] = true
		names = append(names, id.Name)
	}
	for _, stmt := range stmts {
		ast.Inspect(stmt, func(n ast.Node) bool {
			switch t := n.(type) {
			case *ast.FuncLit:
				return false
			case *ast.AssignStmt:
				for _, lhs := range t.Lhs {
					add(lhs)
				}
			case *ast.IncDecStmt:
				add(t.X)
			}
			return true
		})
	}
	return names
}

// firstAssignTok records, per assigned name, the token of the first
// assignment encountered. Names first assigned with := are not declared
// in the enclosing scope and must be defined by the merged result.
func firstAssignTok(stmts []ast.Stmt, toks map[string]token.Token) {
	for _, stmt := range stmts {
		ast.Inspect(stmt, func(n ast.Node) bool {
			switch t := n.(type) {
			case *ast.FuncLit:
				return false
			case *ast.AssignStmt:
				for _, lhs := range t.Lhs {
					id, ok := lhs.(*ast.Ident)
					if !ok || id.Name == "_" {
						continue
					}
					if _, seen := toks[id.Name]; !seen {
						toks[id.Name] = t.Tok
					}
				}
			}
			return true
		})
	}
}

// resultTok returns := when every merged name is local to the extracted
// bodies, and plain assignment when any of them already exists outside.
func resultTok(retNames []string, toks map[string]token.Token) token.Token {
	if len(retNames) == 0 {
		return token.ASSIGN
	}
	for _, name := range retNames {
		if toks[name] != token.DEFINE {
			return token.ASSIGN
		}
	}
	return token.DEFINE
}

// localRetNames returns the merged names local to the extracted body:
// assigned inside it, or defined only in the other branch so the zero
// value is their sentinel. The remaining merged names exist in the
// enclosing scope and must be read from it.
func localRetNames(retNames []string, body []ast.Stmt, toks map[string]token.Token) []string {
	assigned := make(map[string]bool)
	for _, name := range assignedNames(body) {
		assigned[name] = true
	}
	var locals []string
	for _, name := range retNames {
		if assigned[name] || toks[name] == token.DEFINE {
			locals = append(locals, name)
		}
	}
	return locals
}

// mergeNames unions two ordered name lists, preserving first-seen order.
func mergeNames(a, b []string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, names := range [][]string{a, b} {
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return merged
}

// retargetDefines downgrades := to = for statements assigning only
// merged return names, so that the named results of the extracted
// function receive the branch values instead of fresh locals.
func retargetDefines(stmts []ast.Stmt, retNames []string) {
	ret := make(map[string]bool)
	for _, name := range retNames {
		ret[name] = true
	}
	for _, stmt := range stmts {
		assign, ok := stmt.(*ast.AssignStmt)
		if !ok || assign.Tok != token.DEFINE {
			continue
		}
		all := true
		for _, lhs := range assign.Lhs {
			id, ok := lhs.(*ast.Ident)
			if !ok || !ret[id.Name] {
				all = false
				break
			}
		}
		if all {
			assign.Tok = token.ASSIGN
		}
	}
}

// extractFunc builds a zero-argument function literal running the given
// statements and returning the merged names. Names local to the body
// shadow the enclosing scope: a local name unassigned on this path
// yields its zero value. A merged name that exists outside and is never
// assigned here stays a closure read, so this path returns its current
// value.
func extractFunc(graphPkg string, retNames, localNames []string, body []ast.Stmt) *ast.FuncLit {
	stmts := append([]ast.Stmt{}, body...)
	retargetDefines(stmts, retNames)
	fn := &ast.FuncLit{
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: &ast.BlockStmt{},
	}
	if len(retNames) == 0 {
		fn.Body.List = stmts
		return fn
	}
	if len(localNames) == len(retNames) {
		// Every returned name is local: named results carry them.
		idents := make([]*ast.Ident, len(retNames))
		for i, name := range retNames {
			idents[i] = ast.NewIdent(name)
		}
		fn.Type.Results = &ast.FieldList{List: []*ast.Field{{
			Names: idents,
			Type:  selector(graphPkg, "Tensor"),
		}}}
		fn.Body.List = append(stmts, &ast.ReturnStmt{Results: identList(retNames)})
		return fn
	}
	fields := make([]*ast.Field, len(retNames))
	for i := range retNames {
		fields[i] = &ast.Field{Type: selector(graphPkg, "Tensor")}
	}
	fn.Type.Results = &ast.FieldList{List: fields}
	if len(localNames) > 0 {
		stmts = append([]ast.Stmt{varDecl(graphPkg, localNames)}, stmts...)
	}
	fn.Body.List = append(stmts, &ast.ReturnStmt{Results: identList(retNames)})
	return fn
}

// varDecl declares the names as graph tensors: var y, z graph.Tensor.
func varDecl(graphPkg string, names []string) ast.Stmt {
	idents := make([]*ast.Ident, len(names))
	for i, name := range names {
		idents[i] = ast.NewIdent(name)
	}
	return &ast.DeclStmt{Decl: &ast.GenDecl{
		Tok: token.VAR,
		Specs: []ast.Spec{&ast.ValueSpec{
			Names: idents,
			Type:  selector(graphPkg, "Tensor"),
		}},
	}}
}

// defineStmt binds a function literal to a name: name := fn.
func defineStmt(name string, fn *ast.FuncLit) *ast.AssignStmt {
	return &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(name)},
		Tok: token.DEFINE,
		Rhs: []ast.Expr{fn},
	}
}

// condStmt builds the branch-selection statement
// <names> = graph.Cond(test, trueFn, falseFn), or a bare expression
// statement when the branches assign no name.
func condStmt(graphPkg string, retNames []string, tok token.Token, test ast.Expr, trueName, falseName string) ast.Stmt {
	call := &ast.CallExpr{
		Fun:  selector(graphPkg, api.GraphCond),
		Args: []ast.Expr{test, ast.NewIdent(trueName), ast.NewIdent(falseName)},
	}
	if len(retNames) == 0 {
		return &ast.ExprStmt{X: call}
	}
	return &ast.AssignStmt{
		Lhs: identList(retNames),
		Tok: tok,
		Rhs: []ast.Expr{call},
	}
}

// whileStmt builds <vars> = graph.While(condFn, bodyFn).
func whileStmt(graphPkg string, loopVars []string, tok token.Token, condName, bodyName string) ast.Stmt {
	call := &ast.CallExpr{
		Fun:  selector(graphPkg, api.GraphWhile),
		Args: []ast.Expr{ast.NewIdent(condName), ast.NewIdent(bodyName)},
	}
	if len(loopVars) == 0 {
		return &ast.ExprStmt{X: call}
	}
	return &ast.AssignStmt{
		Lhs: identList(loopVars),
		Tok: tok,
		Rhs: []ast.Expr{call},
	}
}

// pendingInserts maps an already-rewritten statement to the extracted
// function definitions that must be spliced immediately before it, at
// the nearest enclosing statement sequence. Entries are consumed during
// a single sweep after the main rewrite.
type pendingInserts map[ast.Stmt][]ast.Stmt

// splice inserts the pending definitions in front of their statement.
// The definitions are placed in the innermost sequence containing the
// statement rather than hoisted to an outer body: a branch may read
// variables mutated on an enclosing object, and the innermost point
// still observes those mutations.
func (p pendingInserts) splice(root ast.Node) {
	if len(p) == 0 {
		return
	}
	ast.Inspect(root, func(n ast.Node) bool {
		block, ok := n.(*ast.BlockStmt)
		if ok {
			p.spliceBlock(block)
		}
		return true
	})
}

func (p pendingInserts) spliceBlock(block *ast.BlockStmt) {
	for idx := len(block.List) - 1; idx >= 0; idx-- {
		defs, ok := p[block.List[idx]]
		if !ok {
			continue
		}
		list := make([]ast.Stmt, 0, len(block.List)+len(defs))
		list = append(list, block.List[:idx]...)
		list = append(list, defs...)
		list = append(list, block.List[idx:]...)
		delete(p, block.List[idx])
		block.List = list
	}
}
