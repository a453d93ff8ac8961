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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTape(t *testing.T) {
	var ta tape
	assert.Equal(t, byte(0), ta.at(5), "out of range reads zero")
	ta.add(2, 7)
	assert.Equal(t, []byte{0, 0, 7}, ta.cells, "grow on write")
	ta.add(2, 250)
	assert.Equal(t, byte(1), ta.at(2), "wrapping add")
	ta.add(4, 0)
	ta.trim()
	assert.Equal(t, []byte{0, 0, 1}, ta.cells, "trailing zeros trimmed")
}

func TestStartup_terminatedProgram(t *testing.T) {
	s := appendAll(t, "+++.")
	require.NoError(t, s.Optimize())

	// the whole program ran at compile time: print 0x03 and zero the
	// cell by wrapping it around
	assert.Equal(t, []Step{
		Add(3),
		Output,
		Mark(0),
		Add(1),
		JumpToIf(true, 0),
	}, s.Steps())
}

func TestStartup_terminatedProgramOutputsZero(t *testing.T) {
	s := appendAll(t, ".")
	require.NoError(t, s.Optimize())
	assert.Equal(t, []Step{
		Add(0),
		Output,
		Mark(0),
		Add(1),
		JumpToIf(true, 0),
	}, s.Steps())
}

func TestStartup_noInputMeansNoInputSteps(t *testing.T) {
	s := appendAll(t, "++ > +++ < [->+<] > .")
	require.NoError(t, s.Optimize())
	for _, st := range s.Steps() {
		assert.NotEqual(t, StepInput, st.Kind)
	}
	// the add program prints 0x05
	assert.Equal(t, Add(5), s.Steps()[0])
	assert.Equal(t, Output, s.Steps()[1])
}

func TestStartup_blockedProgram(t *testing.T) {
	s := appendAll(t, "+>++,.")
	require.NoError(t, s.Optimize())

	assert.Equal(t, []Step{
		// materialize the evaluated tape: [1, 2]
		Add(1), Next(1),
		Add(2), Next(1),
		// fix the pointer back to cell 1
		Prev(1),
		// resume the original program at its input
		JumpTo(0),
		Add(1), Next(1), Add(2),
		Mark(0),
		Input,
		Output,
	}, s.Steps())
}

func TestStartup_blockedAtFirstStep(t *testing.T) {
	s := appendAll(t, ",.")
	require.NoError(t, s.Optimize())
	// nothing ran, nothing to splice
	assert.Equal(t, []Step{Input, Output}, s.Steps())
}

func TestStartup_bufferedOutputBeforeInput(t *testing.T) {
	s := appendAll(t, "+.,")
	require.NoError(t, s.Optimize())

	steps := s.Steps()
	// the buffered 0x01 is printed via the zero-loop idiom first
	assert.Equal(t, Add(1), steps[0])
	assert.Equal(t, Output, steps[1])
	assert.Equal(t, StepLabel, steps[2].Kind)
	assert.Equal(t, Add(1), steps[3])
	assert.Equal(t, JumpToIf(true, steps[2].L), steps[4])
	// and the program still reads input afterwards
	var hasInput bool
	for _, st := range steps {
		hasInput = hasInput || st.Kind == StepInput
	}
	assert.True(t, hasInput)
}

func TestStartup_underflowFails(t *testing.T) {
	s := appendAll(t, "<")
	err := s.Optimize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "underflow")
}

func TestStartup_infiniteLoopStillCompiles(t *testing.T) {
	s := appendAll(t, "+[]")
	require.NoError(t, s.Optimize())
	// fuel ran out mid-loop; the rewrite must still resume inside it
	var hasJump bool
	for _, st := range s.Steps() {
		hasJump = hasJump || st.Kind == StepJumpTo
	}
	assert.True(t, hasJump)
}
