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

// Package compiler lowers Brainfuck tokens to a small tape-machine IR,
// optimizes it, and emits x86-64 assembly through the codegen optimizer.
//
// The pipeline is linear: tokens fold into Steps with matching-pair labels
// for loops; a peephole pass merges adjacent tape operations; a startup
// pass partially evaluates the program until the first input would be
// needed; each Step then expands to a few codegen Instructions which the
// low-level optimizer reworks before printing.
package compiler

import (
	"strconv"

	"github.com/Dentosal/brain-opt/abi"
	"github.com/Dentosal/brain-opt/codegen"
	"github.com/Dentosal/brain-opt/lang/bf"
)

// Label identifies a position in a Step program. Labels are allocated by a
// per-compilation counter; low-IR label names derive from them, so the two
// namespaces cannot collide with pass-synthesized helper labels.
type Label int

func (l Label) String() string {
	return ".label" + strconv.Itoa(int(l))
}

// StepKind discriminates Step variants.
type StepKind int

// Step variants.
const (
	// StepNext moves the tape pointer right.
	StepNext StepKind = iota
	// StepPrev moves the tape pointer left.
	StepPrev
	// StepAdd adds to the current cell, wrapping; Add(255) decrements.
	StepAdd
	// StepJumpTo jumps unconditionally. Synthesized only, no token maps
	// to it.
	StepJumpTo
	// StepJumpToIf jumps when the current cell is nonzero (Cond true) or
	// zero (Cond false).
	StepJumpToIf
	// StepLabel marks a jump target.
	StepLabel
	// StepOutput writes the current cell to stdout.
	StepOutput
	// StepInput reads one byte from stdin into the current cell.
	StepInput
)

// Step is one tape-machine IR instruction.
type Step struct {
	Kind StepKind
	N    uint64 // pointer delta of StepNext/StepPrev
	V    byte   // addend of StepAdd
	Cond bool   // StepJumpToIf: jump on nonzero
	L    Label  // jump target or label definition
}

// Next moves the pointer n cells right.
func Next(n uint64) Step { return Step{Kind: StepNext, N: n} }

// Prev moves the pointer n cells left.
func Prev(n uint64) Step { return Step{Kind: StepPrev, N: n} }

// Add adds v to the current cell, wrapping.
func Add(v byte) Step { return Step{Kind: StepAdd, V: v} }

// JumpTo jumps unconditionally to l.
func JumpTo(l Label) Step { return Step{Kind: StepJumpTo, L: l} }

// JumpToIf jumps to l when the current cell's nonzero-ness equals cond.
func JumpToIf(cond bool, l Label) Step { return Step{Kind: StepJumpToIf, Cond: cond, L: l} }

// Mark defines label l at this position.
func Mark(l Label) Step { return Step{Kind: StepLabel, L: l} }

// Output and Input are the syscall sites.
var (
	Output = Step{Kind: StepOutput}
	Input  = Step{Kind: StepInput}
)

// State builds and optimizes one Step program. Use NewState, Append every
// token, Optimize, then emit.
type State struct {
	scope     []labelPair
	nextLabel Label
	steps     []Step
}

type labelPair struct {
	start, end Label
}

// NewState returns an empty builder with a fresh label counter.
func NewState() *State {
	return &State{}
}

func (s *State) getLabel() Label {
	result := s.nextLabel
	s.nextLabel++
	return result
}

// Steps returns the current Step program.
func (s *State) Steps() []Step {
	return s.steps
}

// Append folds one token into the Step program. Tokens must have balanced
// brackets (bf.Parse guarantees this); a stray LoopEnd panics.
func (s *State) Append(token bf.Token) {
	switch token {
	case bf.Next:
		s.steps = append(s.steps, Next(1))
	case bf.Prev:
		s.steps = append(s.steps, Prev(1))
	case bf.Increment:
		s.steps = append(s.steps, Add(1))
	case bf.Decrement:
		s.steps = append(s.steps, Add(255))
	case bf.Output:
		s.steps = append(s.steps, Output)
	case bf.Input:
		s.steps = append(s.steps, Input)
	case bf.LoopBegin:
		start := s.getLabel()
		end := s.getLabel()
		s.scope = append(s.scope, labelPair{start, end})
		s.steps = append(s.steps, JumpToIf(false, end), Mark(start))
	case bf.LoopEnd:
		if len(s.scope) == 0 {
			panic("compiler: loop end without matching begin")
		}
		pair := s.scope[len(s.scope)-1]
		s.scope = s.scope[:len(s.scope)-1]
		s.steps = append(s.steps, JumpToIf(true, pair.start), Mark(pair.end))
	}
}

// Optimize runs the high-level passes: peephole combination, then startup
// partial evaluation.
func (s *State) Optimize() error {
	if err := s.peephole(); err != nil {
		return err
	}
	return s.optimizeStartup()
}

// instructions expands the Step to its low-IR template. The tape pointer
// lives in the given register; I/O delegates to the target ABI.
func (st Step) instructions(pointer codegen.Register64, ops abi.Operations) []codegen.Instruction {
	switch st.Kind {
	case StepNext:
		return []codegen.Instruction{codegen.AddImm(pointer, st.N)}
	case StepPrev:
		return []codegen.Instruction{codegen.SubImm(pointer, st.N)}
	case StepAdd:
		return []codegen.Instruction{codegen.AddPtr8Imm(pointer, st.V)}
	case StepJumpTo:
		return []codegen.Instruction{codegen.Jump(st.L.String())}
	case StepJumpToIf:
		jump := codegen.JumpZero(st.L.String())
		if st.Cond {
			jump = codegen.JumpNonZero(st.L.String())
		}
		return []codegen.Instruction{codegen.IsZeroPtr8(pointer), jump}
	case StepLabel:
		return []codegen.Instruction{codegen.Label(st.L.String())}
	case StepOutput:
		return ops.WriteBytes(pointer, 1)
	case StepInput:
		return ops.ReadByte(pointer)
	}
	return nil
}

// CompileTokens builds, optimizes and emits the program for the target,
// returning the assembly text and the linking descriptor.
func CompileTokens(tokens []bf.Token, target abi.ABI) (string, abi.LinkerInfo, error) {
	s := NewState()
	for _, token := range tokens {
		s.Append(token)
	}
	info := target.Operations().LinkerInfo()
	if err := s.Optimize(); err != nil {
		return "", info, err
	}
	asm, err := s.Assembly(target)
	return asm, info, err
}
