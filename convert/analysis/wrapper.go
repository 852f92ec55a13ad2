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

package analysis

import "go/ast"

// Wrapper wraps a single AST node with a back-reference to the wrapper
// of its parent node. The wrapper tree is isomorphic to the underlying
// AST; it must be rebuilt after a pass changed the shape of the tree.
type Wrapper struct {
	Node     ast.Node
	Parent   *Wrapper
	Children []*Wrapper
}

// buildWrappers walks the AST once and returns the root wrapper and the
// side table mapping node identity to its wrapper. Keying on node
// identity avoids mutating node objects or creating ownership cycles.
func buildWrappers(root ast.Node) (*Wrapper, map[ast.Node]*Wrapper) {
	byNode := make(map[ast.Node]*Wrapper)
	var rootWrapper *Wrapper
	var stack []*Wrapper
	ast.Inspect(root, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		w := &Wrapper{Node: n}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			w.Parent = parent
			parent.Children = append(parent.Children, w)
		} else {
			rootWrapper = w
		}
		byNode[n] = w
		stack = append(stack, w)
		return true
	})
	return rootWrapper, byNode
}
