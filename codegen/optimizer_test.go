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

package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPass_duplicateName(t *testing.T) {
	o := NewOptimizer()
	o.AddPass("a", RemoveNops)
	assert.Panics(t, func() { o.AddPass("a", RemoveNops) })
}

func TestOptimize_terminates(t *testing.T) {
	// a loop body with every shape the passes react to
	ops := []Instruction{
		AddPtr8Imm(RBX, 5),
		IsZeroPtr8(RBX),
		JumpZero(".label1"),
		Label(".label0"),
		AddPtr8Imm(RBX, 255),
		IsZeroPtr8(RBX),
		JumpNonZero(".label0"),
		Label(".label1"),
		BlackBox("add rsp, $arraylen", EffVolatile),
		MovImm(RDI, 0),
		NamedBlackBox("exit", "call exit", EffVolatile),
	}
	got, err := Optimize(ops)
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	// every remaining jump target is still defined
	labels := map[string]bool{}
	for _, op := range got {
		if op.Op == OpLabel {
			labels[op.Name] = true
		}
	}
	for _, op := range got {
		switch op.Op {
		case OpJump, OpJumpZero, OpJumpNonZero:
			assert.True(t, labels[op.Name], "jump to undefined label %s", op.Name)
		}
	}
}

func TestOptimize_zeroLoopThroughSchedule(t *testing.T) {
	// the full schedule reduces `[-]` after an add: the compare between
	// the cell add and the loop jump goes away first, then the loop folds
	ops := []Instruction{
		AddPtr8Imm(RBX, 5),
		Label(".label0"),
		AddPtr8Imm(RBX, 255),
		IsZeroPtr8(RBX),
		JumpNonZero(".label0"),
		BlackBox("add rsp, $arraylen", EffVolatile),
		MovImm(RDI, 0),
		NamedBlackBox("exit", "call exit", EffVolatile),
	}
	got, err := Optimize(ops)
	require.NoError(t, err)
	for _, op := range got {
		assert.NotEqual(t, OpJumpNonZero, op.Op, "zero loop survived: %v", got)
	}
}

func TestOptimize_reportsMissingLabel(t *testing.T) {
	// jump_skip_recheck resolves targets; an undefined one is an internal
	// error, not a crash
	_, err := Optimize([]Instruction{
		IsZeroPtr8(RBX),
		JumpZero(".nowhere"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".nowhere")
}

func TestOptimize_movesDataToEnd(t *testing.T) {
	got, err := Optimize([]Instruction{
		Data("blob", []byte{1}),
		AddImm(RBX, 1),
	})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, OpData, got[len(got)-1].Op)
	for _, op := range got[:len(got)-1] {
		assert.NotEqual(t, OpData, op.Op)
	}
}
