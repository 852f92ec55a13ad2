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

// Package convert rewrites imperative, eagerly-executed tensor code
// into an equivalent declarative graph-building form.
//
// The input is the source of a single function written against the
// eager API: operations execute immediately and control flow is native
// control flow. The output is the same function written against the
// graph API: operations return symbolic placeholders, undecidable
// control flow becomes explicit graph constructs, and external inputs
// are declared through a feed mapping exposed as metadata.
package convert

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"

	"github.com/pkg/errors"
	"github.com/graphlift/graphlift/base/fmterr"
	"github.com/graphlift/graphlift/base/ordered"
	"github.com/graphlift/graphlift/base/uname"
	"github.com/graphlift/graphlift/convert/analysis"
	"github.com/graphlift/graphlift/convert/api"
	"golang.org/x/exp/maps"
)

// Directive marks a function as eligible for conversion. It is written
// as a //graphlift:convert comment on the function and stripped from
// the converted output.
const Directive = "graphlift:convert"

// Converter converts one function from eager to graph form. A converter
// is single use: Convert runs the pass pipeline once and the metadata
// accessors report on that conversion.
type Converter struct {
	cls *api.Classifier

	funcName   string
	paramIndex map[string]int
	feeds      *ordered.Map[string, string]
	diags      fmterr.Errors
}

// New returns a converter using the given classifier, or the default
// classifier if nil.
func New(cls *api.Classifier) *Converter {
	if cls == nil {
		cls = api.Default()
	}
	return &Converter{cls: cls}
}

// Convert rewrites the source of a function written against the eager
// API into its graph-building form. The source may be a full file or a
// bare function definition. The first function definition becomes the
// conversion target.
//
// The pass ordering is fixed: directive stripping, then API call
// rewrites, then control-flow rewrites, then iteration rewrites. Each
// pass assumes the rewrites of every earlier pass are applied, and the
// analysis is rebuilt between passes since each pass changes the shape
// of the tree.
func (c *Converter) Convert(src string) (string, error) {
	file, fset, err := parseSource(src)
	if err != nil {
		return "", err
	}
	target := firstFuncDecl(file)
	if target == nil {
		return "", errors.Errorf("no function definition in source")
	}
	c.funcName = target.Name.Name
	c.paramIndex = paramIndexOf(target)

	stripDirectives(file)

	names := uname.New()
	ast.Inspect(file, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			names.Register(id.Name)
		}
		return true
	})

	an, err := analysis.Analyze(file, c.cls)
	if err != nil {
		return "", err
	}
	apiTrans, err := newAPICallTransformer(an, c.cls, names, fset, &c.diags)
	if err != nil {
		return "", err
	}
	apiTrans.transform(file)
	c.feeds = apiTrans.feeds

	if an, err = analysis.Analyze(file, c.cls); err != nil {
		return "", err
	}
	ifTrans, err := newIfElseTransformer(an, c.cls, names)
	if err != nil {
		return "", err
	}
	ifTrans.transform(file)

	if an, err = analysis.Analyze(file, c.cls); err != nil {
		return "", err
	}
	loopTrans, err := newLoopTransformer(an, c.cls, names)
	if err != nil {
		return "", err
	}
	loopTrans.transform(file)

	return render(fset, file)
}

// FuncName returns the name of the conversion target: the first
// function definition of the converted source.
func (c *Converter) FuncName() (string, error) {
	if c.funcName == "" {
		return "", errors.Errorf("no conversion has established an entry point")
	}
	return c.funcName, nil
}

// ParamIndex maps each declared parameter name of the conversion target
// to its position.
func (c *Converter) ParamIndex() map[string]int {
	out := make(map[string]int, len(c.paramIndex))
	maps.Copy(out, c.paramIndex)
	return out
}

// Feeds maps each generated external-input name to the variable name it
// was built from.
func (c *Converter) Feeds() map[string]string {
	out := make(map[string]string)
	if c.feeds == nil {
		return out
	}
	for feed, arg := range c.feeds.Iter() {
		out[feed] = arg
	}
	return out
}

// FeedNames returns the generated external-input names in the order the
// feeds appear in the source.
func (c *Converter) FeedNames() []string {
	if c.feeds == nil {
		return nil
	}
	return c.feeds.KeySlice()
}

// FeedParamIndex maps each generated external-input name to the
// position of the parameter that must be fed at execution time. Feeds
// built from variables that are not parameters are omitted.
func (c *Converter) FeedParamIndex() (map[string]int, error) {
	if _, err := c.FuncName(); err != nil {
		return nil, err
	}
	out := make(map[string]int)
	if c.feeds == nil {
		return out, nil
	}
	for feed, arg := range c.feeds.Iter() {
		if idx, ok := c.paramIndex[arg]; ok {
			out[feed] = idx
		}
	}
	return out, nil
}

// Diagnostics returns the non-fatal conditions encountered during the
// conversion, like a tensor construction left unconverted.
func (c *Converter) Diagnostics() []error {
	return c.diags.Errors()
}

func parseSource(src string) (*ast.File, *token.FileSet, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, parser.ParseComments|parser.SkipObjectResolution)
	if err == nil {
		return file, fset, nil
	}
	// A bare function has no package clause.
	fset = token.NewFileSet()
	file, errBare := parser.ParseFile(fset, "src.go", "package lifted\n\n"+src, parser.ParseComments|parser.SkipObjectResolution)
	if errBare != nil {
		return nil, nil, errors.Errorf("cannot parse source: %v", err)
	}
	return file, fset, nil
}

func firstFuncDecl(file *ast.File) *ast.FuncDecl {
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			return fn
		}
	}
	return nil
}

func paramIndexOf(fn *ast.FuncDecl) map[string]int {
	index := make(map[string]int)
	if fn.Type.Params == nil {
		return index
	}
	idx := 0
	for _, field := range fn.Type.Params.List {
		for _, name := range field.Names {
			index[name.Name] = idx
			idx++
		}
	}
	return index
}

func isDirective(text string) bool {
	return strings.HasPrefix(text, "//"+Directive)
}

// stripDirectives removes the conversion markers from the output, both
// from the top-level function and from every nested definition.
func stripDirectives(file *ast.File) {
	var kept []*ast.CommentGroup
	for _, group := range file.Comments {
		var list []*ast.Comment
		for _, comment := range group.List {
			if isDirective(comment.Text) {
				continue
			}
			list = append(list, comment)
		}
		if len(list) == 0 {
			continue
		}
		group.List = list
		kept = append(kept, group)
	}
	file.Comments = kept
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		var list []*ast.Comment
		for _, comment := range fn.Doc.List {
			if isDirective(comment.Text) {
				continue
			}
			list = append(list, comment)
		}
		if len(list) == 0 {
			fn.Doc = nil
			continue
		}
		fn.Doc.List = list
	}
}

func render(fset *token.FileSet, file *ast.File) (string, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return "", errors.Errorf("cannot render converted code: %v", err)
	}
	return buf.String(), nil
}
