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

// Package analysis infers a value category for every variable of a
// function written against the eager API, and maintains a wrapper tree
// over the AST for upward queries.
package analysis

import (
	"go/ast"
	"go/token"

	"github.com/pkg/errors"
	"github.com/graphlift/graphlift/convert/api"
)

// Scope maps variable names to their inferred value categories.
// Sub-scopes mirror nested function definitions in declaration order.
type Scope struct {
	parent *Scope

	// Vars maps a variable name to the set of categories of the
	// values it has been assigned.
	Vars map[string]CategorySet
	// SubScopes are the scopes of nested functions, in source order.
	SubScopes []*Scope
}

func newScope(parent *Scope) *Scope {
	s := &Scope{parent: parent, Vars: make(map[string]CategorySet)}
	if parent != nil {
		parent.SubScopes = append(parent.SubScopes, s)
	}
	return s
}

// Lookup returns the categories of a name, walking enclosing scopes.
func (s *Scope) Lookup(name string) (CategorySet, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if cats, ok := sc.Vars[name]; ok {
			return cats, true
		}
	}
	return nil, false
}

func (s *Scope) assign(name string, cats CategorySet) {
	if name == "_" {
		return
	}
	existing, ok := s.Vars[name]
	if !ok {
		existing = Categories()
		s.Vars[name] = existing
	}
	existing.union(cats)
}

// Analysis is the result of the static analysis of one file.
type Analysis struct {
	cls *api.Classifier

	// Root is the wrapper of the analyzed root node.
	Root *Wrapper
	// Scope is the file-level scope. Its sub-scopes are the scopes of
	// the top-level function declarations, in source order.
	Scope *Scope

	byNode map[ast.Node]*Wrapper
	scopes map[ast.Node]*Scope
}

// Analyze builds the wrapper tree and the scope type environment of a file.
func Analyze(file *ast.File, cls *api.Classifier) (*Analysis, error) {
	if file == nil {
		return nil, errors.Errorf("cannot analyze a nil file")
	}
	if cls == nil {
		cls = api.Default()
	}
	root, byNode := buildWrappers(file)
	an := &Analysis{cls: cls, Root: root, byNode: byNode, scopes: make(map[ast.Node]*Scope)}
	an.Scope = newScope(nil)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		an.funcScope(an.Scope, fn, fn.Type, fn.Body)
	}
	return an, nil
}

// Wrapper returns the wrapper of a node, or nil if the node was not part
// of the tree when it was analyzed.
func (an *Analysis) Wrapper(n ast.Node) *Wrapper {
	return an.byNode[n]
}

// FuncScope returns the scope of the conversion target, that is the
// first function declaration of the analyzed file.
func (an *Analysis) FuncScope() (*Scope, error) {
	if len(an.Scope.SubScopes) == 0 {
		return nil, errors.Errorf("no function definition in the analyzed source")
	}
	return an.Scope.SubScopes[0], nil
}

// EnclosingScope returns the scope of the innermost analyzed function
// containing the node. A node inside a function literal the analysis
// never entered (for example a literal passed directly as a call
// argument) has no scope: its names were not inferred.
func (an *Analysis) EnclosingScope(n ast.Node) (*Scope, bool) {
	w := an.byNode[n]
	if w == nil {
		return nil, false
	}
	for p := w.Parent; p != nil; p = p.Parent {
		switch p.Node.(type) {
		case *ast.FuncLit, *ast.FuncDecl:
			s, ok := an.scopes[p.Node]
			return s, ok
		}
	}
	return nil, false
}

func (an *Analysis) funcScope(parent *Scope, node ast.Node, ftype *ast.FuncType, body *ast.BlockStmt) {
	s := newScope(parent)
	an.scopes[node] = s
	if ftype.Params != nil {
		for _, field := range ftype.Params.List {
			cats := paramCategories(an.cls, field.Type)
			for _, name := range field.Names {
				s.assign(name.Name, cats)
			}
		}
	}
	if body != nil {
		an.blockStmts(s, body.List)
	}
}

func paramCategories(cls *api.Classifier, typ ast.Expr) CategorySet {
	switch t := typ.(type) {
	case *ast.SelectorExpr:
		id, ok := t.X.(*ast.Ident)
		if ok && (id.Name == cls.EagerPkg() || id.Name == cls.GraphPkg()) && t.Sel.Name == "Tensor" {
			return Categories(Tensor)
		}
	case *ast.Ident:
		switch t.Name {
		case "bool":
			return Categories(Bool)
		case "int", "int32", "int64":
			return Categories(Int)
		case "float32", "float64":
			return Categories(Float)
		case "string":
			return Categories(String)
		}
	case *ast.ArrayType:
		return Categories(HostArray)
	case *ast.Ellipsis:
		return paramCategories(cls, t.Elt)
	}
	return Categories(Unknown)
}

func (an *Analysis) blockStmts(s *Scope, stmts []ast.Stmt) {
	for _, stmt := range stmts {
		an.stmt(s, stmt)
	}
}

func (an *Analysis) stmt(s *Scope, stmt ast.Stmt) {
	switch t := stmt.(type) {
	case *ast.AssignStmt:
		an.assignStmt(s, t)
	case *ast.DeclStmt:
		an.declStmt(s, t)
	case *ast.IfStmt:
		an.blockStmts(s, t.Body.List)
		if t.Else != nil {
			an.stmt(s, t.Else)
		}
	case *ast.ForStmt:
		if t.Init != nil {
			an.stmt(s, t.Init)
		}
		if t.Post != nil {
			an.stmt(s, t.Post)
		}
		an.blockStmts(s, t.Body.List)
	case *ast.RangeStmt:
		for _, e := range []ast.Expr{t.Key, t.Value} {
			if id, ok := e.(*ast.Ident); ok {
				s.assign(id.Name, Categories(Unknown))
			}
		}
		an.blockStmts(s, t.Body.List)
	case *ast.BlockStmt:
		an.blockStmts(s, t.List)
	}
}

func (an *Analysis) assignStmt(s *Scope, assign *ast.AssignStmt) {
	// Nested function definitions open a sub-scope.
	for _, rhs := range assign.Rhs {
		if lit, ok := rhs.(*ast.FuncLit); ok {
			an.funcScope(s, lit, lit.Type, lit.Body)
		}
	}
	for i, lhs := range assign.Lhs {
		id, ok := lhs.(*ast.Ident)
		if !ok {
			continue
		}
		value := assign.Rhs[0]
		if len(assign.Lhs) == len(assign.Rhs) {
			value = assign.Rhs[i]
		}
		s.assign(id.Name, an.ExprCategories(s, value))
	}
}

func (an *Analysis) declStmt(s *Scope, decl *ast.DeclStmt) {
	gen, ok := decl.Decl.(*ast.GenDecl)
	if !ok || gen.Tok != token.VAR {
		return
	}
	for _, spec := range gen.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range vs.Names {
			switch {
			case i < len(vs.Values):
				s.assign(name.Name, an.ExprCategories(s, vs.Values[i]))
			case vs.Type != nil:
				s.assign(name.Name, paramCategories(an.cls, vs.Type))
			}
		}
	}
}

// ExprCategories infers the value categories of an expression.
func (an *Analysis) ExprCategories(s *Scope, e ast.Expr) CategorySet {
	switch t := e.(type) {
	case *ast.BasicLit:
		switch t.Kind {
		case token.INT, token.CHAR:
			return Categories(Int)
		case token.FLOAT:
			return Categories(Float)
		case token.STRING:
			return Categories(String)
		}
	case *ast.Ident:
		if t.Name == "true" || t.Name == "false" {
			return Categories(Bool)
		}
		if cats, ok := s.Lookup(t.Name); ok {
			return cats
		}
	case *ast.CompositeLit:
		if _, ok := t.Type.(*ast.ArrayType); ok {
			return Categories(HostArray)
		}
	case *ast.CallExpr:
		switch {
		case an.cls.IsTensorConstructor(t):
			return Categories(Tensor)
		case an.cls.IsGraphAPI(t):
			return Categories(GraphCall)
		case an.cls.IsEagerAPI(t):
			return Categories(Tensor)
		}
	case *ast.SelectorExpr:
		// The shape of a tensor is a host array of axis lengths.
		if t.Sel.Name == api.ShapeAttribute && an.ExprCategories(s, t.X).HasGraphValue() {
			return Categories(HostArray)
		}
	case *ast.IndexExpr:
		inner := an.ExprCategories(s, t.X)
		if inner.Has(HostArray) {
			return Categories(Int)
		}
		if inner.HasGraphValue() {
			return Categories(Tensor)
		}
	case *ast.BinaryExpr:
		left := an.ExprCategories(s, t.X)
		right := an.ExprCategories(s, t.Y)
		if left.HasGraphValue() || right.HasGraphValue() {
			return Categories(Tensor)
		}
		switch t.Op {
		case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ, token.LAND, token.LOR:
			return Categories(Bool)
		}
		merged := Categories()
		merged.union(left)
		merged.union(right)
		return merged
	case *ast.ParenExpr:
		return an.ExprCategories(s, t.X)
	case *ast.UnaryExpr:
		return an.ExprCategories(s, t.X)
	}
	return Categories(Unknown)
}

// IsUndecidable returns true if the expression cannot be decided at
// conversion time because it depends on graph values: a name of tensor
// or graph-call category, a call into the eager or graph API, or a
// tensor shape access.
func (an *Analysis) IsUndecidable(s *Scope, e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.Ident:
		cats, ok := s.Lookup(t.Name)
		return ok && cats.HasGraphValue()
	case *ast.SelectorExpr:
		return an.IsUndecidable(s, t.X)
	case *ast.IndexExpr:
		return an.IsUndecidable(s, t.X) || an.IsUndecidable(s, t.Index)
	case *ast.BinaryExpr:
		return an.IsUndecidable(s, t.X) || an.IsUndecidable(s, t.Y)
	case *ast.UnaryExpr:
		return an.IsUndecidable(s, t.X)
	case *ast.ParenExpr:
		return an.IsUndecidable(s, t.X)
	case *ast.CallExpr:
		if an.cls.IsGraphAPI(t) || an.cls.IsEagerAPI(t) {
			return true
		}
		if an.IsUndecidable(s, t.Fun) {
			return true
		}
		for _, arg := range t.Args {
			if an.IsUndecidable(s, arg) {
				return true
			}
		}
	}
	return false
}
