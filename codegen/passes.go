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
	"fmt"
	"sort"
)

// RedundantMovs drops register moves whose destination already holds the
// value. It tracks the last known immediate per register; black boxes and
// labels clear the table, arithmetic invalidates its destination.
func RedundantMovs(ops []Instruction) []Instruction {
	lastKnown := make(map[Register64]uint64)
	var result []Instruction
	for _, op := range ops {
		include := true
		switch op.Op {
		case OpMovImm:
			if v, ok := lastKnown[op.Reg]; ok && v == op.Imm {
				include = false
			}
		case OpMov:
			if v, ok := lastKnown[op.Reg]; ok {
				if w, ok := lastKnown[op.Src]; ok && v == w {
					include = false
				}
			}
		}
		if include {
			result = append(result, op)
		}

		switch op.Op {
		case OpBlackBox, OpNamedBlackBox, OpLabel:
			lastKnown = make(map[Register64]uint64)
		case OpMov:
			if v, ok := lastKnown[op.Src]; ok {
				lastKnown[op.Reg] = v
			} else {
				delete(lastKnown, op.Reg)
			}
		case OpMovImm:
			lastKnown[op.Reg] = op.Imm
		case OpAddImm, OpSubImm:
			delete(lastKnown, op.Reg)
		}
	}
	return result
}

// Adjacent fuses neighboring instructions using Instruction.Combine. The
// fold always re-pairs the merge result with the next instruction, so runs
// collapse in a single sweep.
func Adjacent(ops []Instruction) []Instruction {
	var result []Instruction
	for _, b := range ops {
		if len(result) == 0 {
			result = append(result, b)
			continue
		}
		last := result[len(result)-1]
		result = append(result[:len(result)-1], last.Combine(b)...)
	}
	return result
}

// AdjacentMemMovs merges runs of byte stores through the same register into
// a single wider store followed by a pointer adjustment. The store width is
// the largest power of two not exceeding min(run length, 8) and the bytes
// are packed little-endian so that consecutive loads recover them in order.
func AdjacentMemMovs(ops []Instruction) []Instruction {
	var result []Instruction
	index := 0
	for index < len(ops) {
		if ops[index].Op == OpMovPtr8Imm {
			r := ops[index].Reg
			imms := []uint8{uint8(ops[index].Imm)}
			for index+len(imms) < len(ops) {
				next := ops[index+len(imms)]
				if next.Op != OpMovPtr8Imm || next.Reg != r {
					break
				}
				imms = append(imms, uint8(next.Imm))
			}

			if len(imms) > 1 {
				if len(imms) > 8 {
					imms = imms[:8]
				}
				for len(imms)&(len(imms)-1) != 0 {
					imms = imms[:len(imms)-1]
				}
				n := len(imms)
				var packed uint64
				for i := n - 1; i >= 0; i-- {
					packed = packed<<8 | uint64(imms[i])
				}
				switch n {
				case 2:
					result = append(result, MovPtr16Imm(r, uint16(packed)))
				case 4:
					result = append(result, MovPtr32Imm(r, uint32(packed)))
				case 8:
					result = append(result, MovPtr64Imm(r, packed))
				}
				result = append(result, AddImm(r, uint64(n)))
				index += n
				continue
			}
		}

		result = append(result, ops[index])
		index++
	}
	return result
}

// StartCells rewrites the leading cell additions into plain stores. At
// program start every cell is zero, so the first touch of a cell can be a
// mov; zero additions are dropped. The scan stops at the first instruction
// that is neither a cell addition nor a forward pointer adjustment.
func StartCells(ops []Instruction) []Instruction {
	index := 0
	for index < len(ops) {
		switch ops[index].Op {
		case OpAddPtr8Imm:
			if ops[index].Imm == 0 {
				ops = append(ops[:index], ops[index+1:]...)
				continue
			}
			ops[index] = MovPtr8Imm(ops[index].Reg, uint8(ops[index].Imm))
		case OpAddImm:
			// pointer motion between first touches
		default:
			return ops
		}
		index++
	}
	return ops
}

// ZeroLoop replaces the three-instruction zeroing idiom
// `L: add byte [r], ±1; jnz L` with a single store of zero. Over 8-bit
// wrapping cells the loop always terminates with the cell at zero.
func ZeroLoop(ops []Instruction) []Instruction {
	var result []Instruction
	index := 0
	for index < len(ops) {
		if index+2 < len(ops) && ops[index+2].Op == OpJumpNonZero {
			add := ops[index+1]
			if add.Op == OpAddPtr8Imm && (add.Imm == 1 || add.Imm == 255) &&
				ops[index].Equal(Label(ops[index+2].Name)) {
				result = append(result, MovPtr8Imm(add.Reg, 0))
				index += 3
				continue
			}
		}

		result = append(result, ops[index])
		index++
	}
	return result
}

// constantOutputRun is the instruction count of one expanded
// write-one-literal-byte sequence recognized by ConstantOutput.
const constantOutputRun = 5

// ConstantOutput fuses runs of single-literal-byte writes into one write of
// a contiguous data blob. It matches the exact shape produced by the ABI
// write call with a preceding byte store: `mov byte [r], b; mov rdi, 1;
// mov rsi, r; mov rdx, 1; <write box>`.
func ConstantOutput(ops []Instruction) []Instruction {
	nameLabel := 0
	getLabel := func() string {
		label := fmt.Sprintf("constant_output%d", nameLabel)
		nameLabel++
		return label
	}

	var result []Instruction
	var currentBytes []byte
	var constStrings []Instruction
	var writeFn *Instruction

	flush := func() {
		if len(currentBytes) == 0 {
			return
		}
		name := getLabel()
		result = append(result,
			MovImm(RDI, 1),
			MovImmVar(RSI, name),
			MovImm(RDX, uint64(len(currentBytes))),
			*writeFn,
		)
		constStrings = append(constStrings, Data(name, append([]byte(nil), currentBytes...)))
		currentBytes = nil
	}

	index := 0
	for index < len(ops) {
		if index+4 < len(ops) && ops[index].Op == OpMovPtr8Imm {
			r := ops[index].Reg
			box := ops[index+4]
			if ops[index+1].Equal(MovImm(RDI, 1)) &&
				ops[index+2].Equal(Mov(RSI, r)) &&
				ops[index+3].Equal(MovImm(RDX, 1)) &&
				box.Op == OpNamedBlackBox && box.Name == "write" {
				if writeFn == nil {
					bb := BlackBox(box.Text, box.Eff)
					writeFn = &bb
				}
				currentBytes = append(currentBytes, byte(ops[index].Imm))
				index += constantOutputRun
				continue
			}
		}

		flush()
		result = append(result, ops[index])
		index++
	}
	flush()
	return append(result, constStrings...)
}

// ZeroFlags drops a `cmp byte [r], 0` when the nearest preceding
// flag-affecting instruction already left ZF describing that cell: another
// identical compare, an addition to the same cell, or the read call (which
// tests its return value).
func ZeroFlags(ops []Instruction) []Instruction {
	var result []Instruction
	for index, op := range ops {
		if op.Op == OpIsZeroPtr8 {
			prior := index - 1
			for prior >= 0 && !ops[prior].AffectsZeroFlag() {
				prior--
			}
			if prior >= 0 {
				p := ops[prior]
				switch {
				case p.Op == OpIsZeroPtr8 && p.Reg == op.Reg:
					continue
				case p.Op == OpAddPtr8Imm && p.Reg == op.Reg:
					continue
				case p.Op == OpNamedBlackBox && p.Name == "read":
					continue
				}
			}
		}
		result = append(result, op)
	}
	return result
}

// Exit removes instructions whose only consumer would be the final exit
// call. The one instruction immediately before the exit box stays: it loads
// the exit code.
func Exit(ops []Instruction) []Instruction {
	index := 0
outer:
	for index < len(ops) {
		if ops[index].Op == OpLabel {
			index++
			continue
		}
		eff, ok := ops[index].Effects()
		if !ok || eff.ControlFlow || eff.IO {
			index++
			continue
		}

		for offset := 1; index+offset < len(ops); offset++ {
			next := ops[index+offset]
			if next.Op == OpNamedBlackBox && next.Name == "exit" && offset > 1 {
				ops = append(ops[:index], ops[index+1:]...)
				continue outer
			}
			if e, ok := next.Effects(); ok && (e.ControlFlow || e.IO) {
				break
			}
		}
		index++
	}
	return ops
}

// RemoveDeadCode elides an unconditional jump together with the
// instructions between it and the next label, provided the jump targets
// exactly that label; otherwise the block is reachable through another path
// and must remain. A jump directly followed by its target label, or with no
// label after it, is left in place.
func RemoveDeadCode(ops []Instruction) []Instruction {
	var result []Instruction
	index := 0
	for index < len(ops) {
		if ops[index].Op == OpJump {
			ok := false
			i := 1
			for index+i < len(ops) {
				if ops[index+i].Op == OpLabel {
					ok = ops[index+i].Name == ops[index].Name
					break
				}
				i++
			}

			if ok && i > 1 {
				index += i
				continue
			}
		}

		result = append(result, ops[index])
		index++
	}
	return result
}

// RemoveUnusedLabels drops labels no jump refers to.
func RemoveUnusedLabels(ops []Instruction) []Instruction {
	used := make(map[string]bool)
	for _, op := range ops {
		switch op.Op {
		case OpJump, OpJumpZero, OpJumpNonZero:
			used[op.Name] = true
		}
	}

	var result []Instruction
	for _, op := range ops {
		if op.Op == OpLabel && !used[op.Name] {
			continue
		}
		result = append(result, op)
	}
	return result
}

// RemoveNops drops instructions with no effects, and flag-only instructions
// whose flag result is overwritten before anything reads it.
func RemoveNops(ops []Instruction) []Instruction {
	index := 0
	for index < len(ops) {
		if eff, ok := ops[index].Effects(); ok {
			required := true
			if eff == EffNop {
				required = false
			} else if eff.Flags && !eff.Registers && !eff.ControlFlow {
				// Keep only if some instruction reads ZF before the next
				// flag writer. Labels count as writers: a jump may land
				// there with any flag state.
				required = false
				for i := index + 1; i < len(ops); i++ {
					if ops[i].ReadsZF() {
						required = true
						break
					}
					if e, ok := ops[i].Effects(); ok && e.Flags {
						break
					}
				}
			}
			if !required {
				ops = append(ops[:index], ops[index+1:]...)
				continue
			}
		}
		index++
	}
	return ops
}

// DeadJumps drops a conditional jump when an earlier jump of the same kind
// already guards this point, with no flag writer in between.
func DeadJumps(ops []Instruction) []Instruction {
	index := 0
outer:
	for index < len(ops) {
		kind := ops[index].Op
		if kind == OpJumpZero || kind == OpJumpNonZero {
			for negOffset := 1; index > negOffset; negOffset++ {
				prior := ops[index-negOffset]
				if eff, ok := prior.Effects(); ok && eff.Flags {
					break
				}
				if prior.Op == kind {
					ops = append(ops[:index], ops[index+1:]...)
					continue outer
				}
			}
		}
		index++
	}
	return ops
}

// labelIndex returns the position of the given label definition. A missing
// label is a compiler bug; the panic is converted to an error by Optimize.
func labelIndex(ops []Instruction, label string) int {
	for i, op := range ops {
		if op.Op == OpLabel && op.Name == label {
			return i
		}
	}
	panic(fmt.Sprintf("label %s does not exist", label))
}

// JumpSkipRecheck retargets a conditional jump whose destination
// immediately re-tests the same cell and branches on the opposite
// condition. The original jump already implies the outcome, so it can land
// just after the recheck via a fresh label.
func JumpSkipRecheck(ops []Instruction) []Instruction {
	nextLabel := 0
	getLabel := func() string {
		label := fmt.Sprintf(".jump_skip_recheck%d", nextLabel)
		nextLabel++
		return label
	}

	opposite := map[Op]Op{OpJumpZero: OpJumpNonZero, OpJumpNonZero: OpJumpZero}

	for index := 1; index < len(ops); index++ {
		if ops[index-1].Op != OpIsZeroPtr8 {
			continue
		}
		r := ops[index-1].Reg
		kind := ops[index].Op
		if kind != OpJumpZero && kind != OpJumpNonZero {
			continue
		}
		li := labelIndex(ops, ops[index].Name)
		if li+2 >= len(ops) || !ops[li+1].Equal(IsZeroPtr8(r)) || ops[li+2].Op != opposite[kind] {
			continue
		}
		newLabel := getLabel()
		ops[index] = Instruction{Op: kind, Name: newLabel}
		ops = append(ops[:li+3], append([]Instruction{Label(newLabel)}, ops[li+3:]...)...)
		if li < index {
			index++
		}
	}
	return ops
}

// SeparateData splits the buffer into executable instructions and data
// items, the latter sorted by name for stable output.
func SeparateData(ops []Instruction) (code, data []Instruction) {
	index := 0
	for index < len(ops) {
		if ops[index].Op == OpData {
			data = append(data, ops[index])
			ops = append(ops[:index], ops[index+1:]...)
			continue
		}
		index++
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Name < data[j].Name })
	return ops, data
}

// MoveDataToEnd moves all data items to the end of the buffer. It runs
// after every pass so that data never sits between executable instructions.
func MoveDataToEnd(ops []Instruction) []Instruction {
	code, data := SeparateData(ops)
	return append(code, data...)
}
