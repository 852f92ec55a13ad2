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

// loopTransformer rewrites condition-only for loops whose test depends
// on graph values into calls to the graph loop primitive. Loops with a
// decidable condition, three-clause loops and range loops run as host
// control flow and are left as written.
type loopTransformer struct {
	cls   *api.Classifier
	an    *analysis.Analysis
	names *uname.Unique

	pending pendingInserts
}

func newLoopTransformer(an *analysis.Analysis, cls *api.Classifier, names *uname.Unique) (*loopTransformer, error) {
	if an == nil || an.Root == nil {
		return nil, errors.Errorf("iteration transformer requires an analyzed wrapper tree, got %v", an)
	}
	if _, err := an.FuncScope(); err != nil {
		return nil, err
	}
	return &loopTransformer{
		cls:     cls,
		an:      an,
		names:   names,
		pending: make(pendingInserts),
	}, nil
}

func (t *loopTransformer) transform(file *ast.File) {
	astutil.Apply(file, nil, t.post)
	t.pending.splice(file)
}

func (t *loopTransformer) post(c *astutil.Cursor) bool {
	loop, ok := c.Node().(*ast.ForStmt)
	if !ok || loop.Init != nil || loop.Post != nil || loop.Cond == nil {
		return true
	}
	// Resolved against the scope of the function containing the loop:
	// a nested literal may shadow outer tensor names with host values.
	scope, ok := t.an.EnclosingScope(loop)
	if !ok || !t.an.IsUndecidable(scope, loop.Cond) {
		return true
	}
	t.rewriteLoop(c, loop)
	return true
}

func (t *loopTransformer) rewriteLoop(c *astutil.Cursor, loop *ast.ForStmt) {
	graphPkg := t.cls.GraphPkg()
	loopVars := assignedNames(loop.Body.List)
	toks := make(map[string]token.Token)
	firstAssignTok(loop.Body.List, toks)
	tok := resultTok(loopVars, toks)

	condName := t.names.Name("condFn")
	bodyName := t.names.Name("bodyFn")
	condFn := &ast.FuncLit{
		Type: &ast.FuncType{
			Params: &ast.FieldList{},
			Results: &ast.FieldList{List: []*ast.Field{{
				Type: selector(graphPkg, "Tensor"),
			}}},
		},
		Body: &ast.BlockStmt{List: []ast.Stmt{
			&ast.ReturnStmt{Results: []ast.Expr{loop.Cond}},
		}},
	}
	condDef := defineStmt(condName, condFn)
	// Every loop variable is assigned in the body, so all are local.
	bodyDef := defineStmt(bodyName, extractFunc(graphPkg, loopVars, loopVars, loop.Body.List))

	while := whileStmt(graphPkg, loopVars, tok, condName, bodyName)
	c.Replace(while)
	t.pending[while] = []ast.Stmt{condDef, bodyDef}
}
