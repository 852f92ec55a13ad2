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
	"go/types"

	"github.com/pkg/errors"
	"github.com/graphlift/graphlift/base/fmterr"
	"github.com/graphlift/graphlift/base/ordered"
	"github.com/graphlift/graphlift/base/uname"
	"github.com/graphlift/graphlift/convert/analysis"
	"github.com/graphlift/graphlift/convert/api"
	"golang.org/x/tools/go/ast/astutil"
)

// apiCallTransformer rewrites eager API usages into their graph
// equivalents: tensor construction becomes a graph input declaration,
// tensor shape accesses fed into graph calls route through the symbolic
// shape accessor, and eager layer instances invoked as callables become
// direct calls of their graph equivalent.
//
// All state is local to one pass over one function and discarded at
// pass completion.
type apiCallTransformer struct {
	cls   *api.Classifier
	an    *analysis.Analysis
	scope *analysis.Scope
	names *uname.Unique
	fset  *token.FileSet
	diags *fmterr.Errors

	// classInit maps the rendered text of an assignment target to the
	// eager layer construction call that produced it.
	classInit map[string]*ast.CallExpr
	// shapeOrigin maps a variable name to the expression that produced
	// its tensor shape value, so that shape values reached through
	// assignment chains are rewritten like a direct access would be.
	shapeOrigin map[string]ast.Expr
	// feeds maps a generated external-input name to the name of the
	// variable that was wrapped into a tensor construction call, in
	// source order.
	feeds *ordered.Map[string, string]
}

func newAPICallTransformer(an *analysis.Analysis, cls *api.Classifier, names *uname.Unique, fset *token.FileSet, diags *fmterr.Errors) (*apiCallTransformer, error) {
	if an == nil || an.Root == nil {
		return nil, errors.Errorf("API call transformer requires an analyzed wrapper tree, got %v", an)
	}
	scope, err := an.FuncScope()
	if err != nil {
		return nil, err
	}
	return &apiCallTransformer{
		cls:         cls,
		an:          an,
		scope:       scope,
		names:       names,
		fset:        fset,
		diags:       diags,
		classInit:   make(map[string]*ast.CallExpr),
		shapeOrigin: make(map[string]ast.Expr),
		feeds:       ordered.NewMap[string, string](),
	}, nil
}

func (t *apiCallTransformer) transform(file *ast.File) {
	astutil.Apply(file, t.pre, t.post)
}

func (t *apiCallTransformer) pre(c *astutil.Cursor) bool {
	switch n := c.Node().(type) {
	case *ast.AssignStmt:
		if t.isClassInit(n) {
			// The graph equivalent is inlined at the first use of the
			// instance; the construction statement disappears. A
			// construction outside a statement list, like an if init
			// clause, cannot be deleted and stays eager.
			if c.Index() < 0 {
				t.diags.Appendf(t.fset, n.Pos(), "layer construction outside a statement list: left unconverted")
				return false
			}
			t.recordClassInit(n)
			c.Delete()
			return false
		}
		if t.recordShapeOrigin(n) {
			// The defining statement is kept as written.
			return false
		}
	case *ast.ExprStmt:
		call, ok := n.X.(*ast.CallExpr)
		if ok && t.cls.IsEagerAPI(call) {
			if c.Index() < 0 {
				t.diags.Appendf(t.fset, n.Pos(), "eager call outside a statement list: left unconverted")
				return false
			}
			c.Delete()
			return false
		}
	}
	return true
}

func (t *apiCallTransformer) post(c *astutil.Cursor) bool {
	switch n := c.Node().(type) {
	case *ast.CallExpr:
		if t.cls.IsTensorConstructor(n) {
			if input, ok := t.feedInput(n); ok {
				c.Replace(input)
			}
			return true
		}
		if static := t.staticForward(n); static != nil {
			c.Replace(static)
		}
	case *ast.SelectorExpr:
		if t.usedByGraphAPI(n) && t.isTensorShape(n) {
			c.Replace(shapeCall(t.cls.GraphPkg(), n.X))
		}
	case *ast.Ident:
		origin, ok := t.shapeOrigin[n.Name]
		if ok && t.usedByGraphAPI(n) {
			c.Replace(t.shapeNodeFor(origin))
		}
	}
	return true
}

// isClassInit matches assignments constructing an eager layer that has
// a graph equivalent, like m := eager.Linear(10, 5).
func (t *apiCallTransformer) isClassInit(assign *ast.AssignStmt) bool {
	if len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
		return false
	}
	call, ok := assign.Rhs[0].(*ast.CallExpr)
	if !ok || t.cls.IsTensorConstructor(call) {
		return false
	}
	_, ok = t.cls.StaticEquivalent(call)
	return ok
}

func (t *apiCallTransformer) recordClassInit(assign *ast.AssignStmt) {
	t.classInit[types.ExprString(assign.Lhs[0])] = assign.Rhs[0].(*ast.CallExpr)
}

// recordShapeOrigin tracks assignments whose value is a tensor shape:
// a direct attribute access, a subscript of one, or a name already
// tracked as a shape.
func (t *apiCallTransformer) recordShapeOrigin(assign *ast.AssignStmt) bool {
	if len(assign.Lhs) != 1 || len(assign.Rhs) != 1 {
		return false
	}
	target, ok := assign.Lhs[0].(*ast.Ident)
	if !ok {
		return false
	}
	switch value := assign.Rhs[0].(type) {
	case *ast.Ident:
		if origin, ok := t.shapeOrigin[value.Name]; ok {
			t.shapeOrigin[target.Name] = origin
			return true
		}
	case *ast.SelectorExpr:
		if t.isTensorShape(value) {
			t.shapeOrigin[target.Name] = value
			return true
		}
	case *ast.IndexExpr:
		switch x := value.X.(type) {
		case *ast.SelectorExpr:
			if t.isTensorShape(x) {
				t.shapeOrigin[target.Name] = value
				return true
			}
		case *ast.Ident:
			if origin, ok := t.shapeOrigin[x.Name]; ok {
				t.shapeOrigin[target.Name] = &ast.IndexExpr{X: origin, Index: value.Index}
				return true
			}
		}
	}
	return false
}

// isTensorShape returns true for accesses like x.Shape where x is a
// graph tensor. A name already tracked as a shape wins over a fresh
// scope lookup. A name absent from the scope environment, for example
// a capture from an unanalyzed enclosing scope, is conservatively not
// a tensor shape.
func (t *apiCallTransformer) isTensorShape(sel *ast.SelectorExpr) bool {
	if sel.Sel.Name != api.ShapeAttribute {
		return false
	}
	id, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	if _, ok := t.shapeOrigin[id.Name]; ok {
		return true
	}
	cats, ok := t.scope.Lookup(id.Name)
	if !ok {
		return false
	}
	if cats.Has(analysis.HostArray) {
		return false
	}
	return cats.HasGraphValue()
}

// usedByGraphAPI walks the wrapper-parent chain of a node, skipping
// nested attribute and subscript layers, until it reaches a call: the
// node is an argument of the graph API only if that call is a graph
// call. Control primitives receive their test expression unchanged;
// earlier rewrites already normalized it.
func (t *apiCallTransformer) usedByGraphAPI(node ast.Node) bool {
	w := t.an.Wrapper(node)
	if w == nil {
		// Synthesized during this pass, not part of the analyzed tree.
		return false
	}
	for p := w.Parent; p != nil; p = p.Parent {
		switch parent := p.Node.(type) {
		case *ast.CallExpr:
			return t.cls.IsGraphAPI(parent) && !t.cls.IsControlPrimitive(parent)
		case *ast.FuncLit, *ast.FuncDecl:
			return false
		}
	}
	return false
}

// shapeNodeFor rebuilds a use of a tracked shape value from its origin:
// s = t.Shape resolves to graph.Shape(t), s = t.Shape[0] keeps its
// subscript on the symbolic accessor.
func (t *apiCallTransformer) shapeNodeFor(origin ast.Expr) ast.Expr {
	switch o := origin.(type) {
	case *ast.SelectorExpr:
		return shapeCall(t.cls.GraphPkg(), o.X)
	case *ast.IndexExpr:
		return &ast.IndexExpr{X: t.shapeNodeFor(o.X), Index: cloneExpr(o.Index)}
	}
	return cloneExpr(origin)
}

// feedInput replaces a tensor construction call with a graph input
// declaration and records the feed. A construction call whose value is
// not a simple name is left untransformed: the conversion of the rest
// of the function proceeds without a feed entry for it.
func (t *apiCallTransformer) feedInput(call *ast.CallExpr) (ast.Expr, bool) {
	var value *ast.Ident
	if len(call.Args) > 0 {
		value, _ = call.Args[0].(*ast.Ident)
	}
	if value == nil {
		t.diags.Appendf(t.fset, call.Pos(), "tensor construction value is not a simple name: call left unconverted")
		return nil, false
	}
	feedName := t.names.Name(value.Name)
	t.feeds.Store(feedName, value.Name)
	return &ast.CallExpr{
		Fun:  selector(t.cls.GraphPkg(), api.GraphInput),
		Args: []ast.Expr{ast.NewIdent(value.Name)},
	}, true
}

// staticForward rewrites a call of an eager layer instance into a call
// of its graph equivalent, with the call arguments first and the
// original construction arguments merged in after.
func (t *apiCallTransformer) staticForward(call *ast.CallExpr) ast.Expr {
	ctor, ok := t.classInit[api.CalleeText(call)]
	if !ok {
		return nil
	}
	static, ok := t.cls.StaticEquivalent(ctor)
	if !ok {
		return nil
	}
	args := make([]ast.Expr, 0, len(call.Args)+len(ctor.Args))
	args = append(args, call.Args...)
	args = append(args, ctor.Args...)
	return &ast.CallExpr{
		Fun:  selector(t.cls.GraphPkg(), static),
		Args: args,
	}
}
