// This file is part of brain-opt - https://github.com/Dentosal/brain-opt
//
// Copyright 2025 The brain-opt Authors
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

// Package vm is a tree-walking Brainfuck interpreter. It is the behavioral
// reference for the compiler: same 8-bit wrapping cells, same EOF-as-zero
// input contract, grow-on-demand tape.
package vm

import "io"

// Option configures an Instance.
type Option func(*Instance) error

// Input sets the reader Input tokens read from. Without one, every read
// reports end of file and stores zero.
func Input(r io.Reader) Option {
	return func(i *Instance) error { i.input = r; return nil }
}

// Output sets the writer Output tokens write to. Without one, output is
// discarded.
func Output(w io.Writer) Option {
	return func(i *Instance) error { i.output = w; return nil }
}

// Instance is one interpreter run's state.
type Instance struct {
	cells    []byte
	pointer  int
	input    io.Reader
	output   io.Writer
	insCount int64
}

// New creates an interpreter instance with a single zero cell.
func New(opts ...Option) (*Instance, error) {
	i := &Instance{cells: make([]byte, 1)}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// Cells returns the tape as touched so far. Value changes are reflected in
// the instance; reslicing is not.
func (i *Instance) Cells() []byte {
	return i.cells
}

// Pointer returns the current cell index.
func (i *Instance) Pointer() int {
	return i.pointer
}

// InstructionCount returns the number of tokens executed so far.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}
