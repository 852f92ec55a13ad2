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

package uname_test

import (
	"testing"

	"github.com/graphlift/graphlift/base/uname"
)

func TestName(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{
			name: "a",
			want: "a_0",
		},
		{
			name: "a",
			want: "a_1",
		},
		{
			name: "a",
			want: "a_2",
		},
		{
			name: "b",
			want: "b_0",
		},
		{
			name: "b",
			want: "b_1",
		},
	}
	unames := uname.New()
	for i, test := range tests {
		got := unames.Name(test.name)
		if got != test.want {
			t.Errorf("test %d: for name %s, got %s but want %s", i, test.name, got, test.want)
		}
	}
}

func TestRegister(t *testing.T) {
	unames := uname.New()
	unames.Register("trueFn_0")
	unames.Register("trueFn_2")
	tests := []struct {
		name, want string
	}{
		{
			name: "trueFn",
			want: "trueFn_1",
		},
		{
			name: "trueFn",
			want: "trueFn_3",
		},
		{
			name: "falseFn",
			want: "falseFn_0",
		},
	}
	for i, test := range tests {
		got := unames.Name(test.name)
		if got != test.want {
			t.Errorf("test %d: for name %s, got %s but want %s", i, test.name, got, test.want)
		}
	}
}
