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

// Category is the inferred classification of the runtime kind of a value.
type Category int

const (
	// Unknown values cannot be classified.
	Unknown Category = iota
	// Bool host value.
	Bool
	// Int host value.
	Int
	// Float host value.
	Float
	// String host value.
	String
	// HostArray is a concrete numeric array on the host.
	HostArray
	// Tensor is a graph tensor.
	Tensor
	// GraphCall is the result of a graph API call.
	GraphCall
)

func (c Category) String() string {
	switch c {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case HostArray:
		return "hostarray"
	case Tensor:
		return "tensor"
	case GraphCall:
		return "graphcall"
	default:
		return "unknown"
	}
}

// CategorySet is a set of value categories. A variable accumulates one
// category per assignment it receives.
type CategorySet map[Category]bool

// Categories builds a set from the given categories.
func Categories(cats ...Category) CategorySet {
	s := make(CategorySet)
	for _, c := range cats {
		s[c] = true
	}
	return s
}

// Has returns true if the set contains the category.
func (s CategorySet) Has(c Category) bool {
	return s[c]
}

// HasGraphValue returns true if the set contains a graph tensor or a
// graph-call result.
func (s CategorySet) HasGraphValue() bool {
	return s[Tensor] || s[GraphCall]
}

func (s CategorySet) union(o CategorySet) {
	for c := range o {
		s[c] = true
	}
}
