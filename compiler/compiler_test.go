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

package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dentosal/brain-opt/abi"
	"github.com/Dentosal/brain-opt/lang/bf"
)

func appendAll(t *testing.T, src string) *State {
	t.Helper()
	tokens, err := bf.Parse(src)
	require.NoError(t, err)
	s := NewState()
	for _, token := range tokens {
		s.Append(token)
	}
	return s
}

func TestAppend_loopShape(t *testing.T) {
	s := appendAll(t, "[-]")
	assert.Equal(t, []Step{
		JumpToIf(false, 1),
		Mark(0),
		Add(255),
		JumpToIf(true, 0),
		Mark(1),
	}, s.Steps())
}

func TestAppend_labelUniqueness(t *testing.T) {
	s := appendAll(t, "[[]][]")
	seen := map[Label]bool{}
	for _, st := range s.Steps() {
		if st.Kind == StepLabel {
			assert.False(t, seen[st.L], "label %s defined twice", st.L)
			seen[st.L] = true
		}
	}
	for _, st := range s.Steps() {
		if st.Kind == StepJumpTo || st.Kind == StepJumpToIf {
			assert.True(t, seen[st.L], "jump to undefined label %s", st.L)
		}
	}
}

func TestCombineSteps(t *testing.T) {
	cases := []struct {
		a, b Step
		want []Step
	}{
		{Add(200), Add(100), []Step{Add(44)}},
		{Next(2), Next(3), []Step{Next(5)}},
		{Prev(2), Prev(3), []Step{Prev(5)}},
		{Next(3), Prev(3), []Step{}},
		{Next(5), Prev(2), []Step{Next(3)}},
		{Next(2), Prev(5), []Step{Prev(3)}},
		{Prev(3), Next(3), []Step{}},
		{Prev(5), Next(2), []Step{Prev(3)}},
		{Prev(2), Next(5), []Step{Next(3)}},
		// no fusion across other step kinds
		{Add(1), Output, []Step{Add(1), Output}},
		{Next(1), Mark(0), []Step{Next(1), Mark(0)}},
	}
	for _, c := range cases {
		got, err := combine(c.a, c.b)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%v %v", c.a, c.b)
	}
}

func TestCombineSteps_overflow(t *testing.T) {
	_, err := combine(Next(^uint64(0)), Next(1))
	require.Error(t, err)
	_, err = combine(Prev(^uint64(0)), Prev(2))
	require.Error(t, err)
}

func TestPeephole(t *testing.T) {
	s := appendAll(t, "+++>><<--")
	require.NoError(t, s.peephole())
	assert.Equal(t, []Step{Add(3), Add(254)}, s.Steps())
}

func TestPeephole_doesNotCrossLabels(t *testing.T) {
	s := NewState()
	s.steps = []Step{Next(1), Mark(0), Prev(1)}
	require.NoError(t, s.peephole())
	assert.Equal(t, []Step{Next(1), Mark(0), Prev(1)}, s.Steps())
}

func TestPeephole_reexaminesAfterMerge(t *testing.T) {
	// a merge result pairs up with the next step again before the cursor
	// advances, so a whole run collapses in one sweep
	s := NewState()
	s.steps = []Step{Next(1), Next(1), Next(1)}
	require.NoError(t, s.peephole())
	assert.Equal(t, []Step{Next(3)}, s.Steps())

	// cancellation re-pairs the following steps at the same position
	s = NewState()
	s.steps = []Step{Add(1), Next(1), Prev(1), Add(2), Add(3)}
	require.NoError(t, s.peephole())
	assert.Equal(t, []Step{Add(1), Add(5)}, s.Steps())
}

func TestCompileTokens_constantProgram(t *testing.T) {
	tokens, err := bf.Parse("+++.")
	require.NoError(t, err)
	asm, link, err := CompileTokens(tokens, abi.Linux)
	require.NoError(t, err)

	assert.Equal(t, "main", link.Entrypoint)
	assert.Contains(t, asm, "global main")
	assert.Contains(t, asm, "extern write")
	// fully evaluated at compile time: one write of a data blob, no read
	assert.Contains(t, asm, "mov rsi, constant_output0")
	assert.Contains(t, asm, "constant_output0: db 0x3")
	assert.NotContains(t, asm, "call read")
	// the tape prologue with substitutions applied
	assert.Contains(t, asm, "sub rsp, 30000")
	assert.Contains(t, asm, "mov rbx, rsp")
	assert.Contains(t, asm, "rep stosb")
	assert.NotContains(t, asm, "$arraylen")
	assert.NotContains(t, asm, "$pointer")
	assert.NotContains(t, asm, "$entrypoint")
}

func TestCompileTokens_echo(t *testing.T) {
	tokens, err := bf.Parse(",.")
	require.NoError(t, err)
	asm, _, err := CompileTokens(tokens, abi.Linux)
	require.NoError(t, err)

	assert.Contains(t, asm, "call read")
	assert.Contains(t, asm, "call write")
	// EOF-as-zero: a zero is stored through the read buffer pointer
	assert.Contains(t, asm, "mov byte [rsi], 0")
}

func TestCompileTokens_infiniteLoop(t *testing.T) {
	tokens, err := bf.Parse("+[]")
	require.NoError(t, err)
	asm, _, err := CompileTokens(tokens, abi.Linux)
	require.NoError(t, err)

	// no output: the constant output fusion must not fire
	assert.NotContains(t, asm, "constant_output")
	assert.NotContains(t, asm, "call write")
}

func TestCompileTokens_macos(t *testing.T) {
	tokens, err := bf.Parse("+++.")
	require.NoError(t, err)
	asm, link, err := CompileTokens(tokens, abi.MacOS)
	require.NoError(t, err)

	assert.Equal(t, "_main", link.Entrypoint)
	assert.Equal(t, "macho64", link.ObjectFormat)
	assert.Contains(t, asm, "global _main")
	assert.Contains(t, asm, "extern _write")
	assert.Contains(t, asm, "call _exit")
}

func TestCompileTokens_pointerUnderflow(t *testing.T) {
	tokens, err := bf.Parse("<+")
	require.NoError(t, err)
	_, _, err = CompileTokens(tokens, abi.Linux)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "underflow")
}

func TestAssembly_sections(t *testing.T) {
	s := appendAll(t, "+++.")
	require.NoError(t, s.Optimize())
	asm, err := s.Assembly(abi.Linux)
	require.NoError(t, err)

	text := strings.Index(asm, "section .text")
	data := strings.Index(asm, "section .data")
	require.True(t, text >= 0)
	require.True(t, data > text)
}
