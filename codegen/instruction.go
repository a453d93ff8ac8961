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
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Register64 names an x86-64 general purpose register.
type Register64 int

// Registers used by generated code.
const (
	RAX Register64 = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RSP
	R10
	R11
	R12
)

var registerNames = [...]string{"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rsp", "r10", "r11", "r12"}

func (r Register64) String() string {
	if r < 0 || int(r) >= len(registerNames) {
		return "reg" + strconv.Itoa(int(r))
	}
	return registerNames[r]
}

// Effects describes what architectural state an instruction may change. The
// optimizer passes use it to decide what is safe to move or remove.
type Effects struct {
	// Flags covers the zero flag, the only condition bit generated code reads.
	Flags bool
	// Registers is set when any register may change.
	Registers bool
	// ControlFlow is set for branching.
	ControlFlow bool
	// Stack is set when rsp or stack memory may change.
	Stack bool
	// IO is set for file input/output.
	IO bool
}

// Canonical effect values.
var (
	// EffVolatile must not be moved or eliminated.
	EffVolatile = Effects{Flags: true, Registers: true, ControlFlow: true, Stack: true, IO: true}
	// EffReg changes registers only.
	EffReg = Effects{Registers: true}
	// EffFlag changes flags only.
	EffFlag = Effects{Flags: true}
	// EffArithmetic changes registers and flags.
	EffArithmetic = Effects{Flags: true, Registers: true}
	// EffJump branches without touching flags or registers.
	EffJump = Effects{ControlFlow: true}
	// EffLabel is pessimistic: any jump may land here, so flags and
	// registers must be considered clobbered.
	EffLabel = Effects{Flags: true, Registers: true}
	// EffNop changes nothing.
	EffNop = Effects{}
)

// Op discriminates Instruction variants.
type Op int

// Instruction variants.
const (
	// OpBlackBox is raw assembly the optimizer passes through.
	OpBlackBox Op = iota
	// OpNamedBlackBox is a black box carrying an identifier for the optimizer.
	OpNamedBlackBox
	OpMovImm    // mov rax, 2
	OpMovImmVar // mov rax, label
	OpMov       // mov rax, rbx
	OpMovPtr8Imm
	OpMovPtr16Imm
	OpMovPtr32Imm
	OpMovPtr64Imm
	OpAddImm
	OpSubImm
	OpAddPtr8Imm
	OpAddPtr16Imm
	OpAddPtr32Imm
	OpAddPtr64Imm
	OpIsZero     // test rax, rax (always followed by a conditional jump)
	OpIsZeroPtr8 // cmp byte [rax], 0 (always followed by a conditional jump)
	OpJumpZero
	OpJumpNonZero
	OpJump
	OpLabel
	OpData // name: db ... (in section .data)
)

// Instruction is a single low-IR operation. The zero value is not valid;
// use the constructors.
type Instruction struct {
	Op   Op
	Reg  Register64 // destination or pointer register
	Src  Register64 // source register of OpMov
	Imm  uint64     // immediate operand
	Name string     // label, jump target, black box or data item name
	Text string     // raw assembly of black boxes
	Eff  Effects    // declared effects of black boxes
	Data []byte     // payload of OpData
}

// BlackBox returns raw assembly with declared effects.
func BlackBox(text string, eff Effects) Instruction {
	return Instruction{Op: OpBlackBox, Text: text, Eff: eff}
}

// NamedBlackBox returns raw assembly that passes can recognize by name.
func NamedBlackBox(name, text string, eff Effects) Instruction {
	return Instruction{Op: OpNamedBlackBox, Name: name, Text: text, Eff: eff}
}

// MovImm returns `mov r, imm`.
func MovImm(r Register64, imm uint64) Instruction {
	return Instruction{Op: OpMovImm, Reg: r, Imm: imm}
}

// MovImmVar returns `mov r, name` where name is an assembly symbol.
func MovImmVar(r Register64, name string) Instruction {
	return Instruction{Op: OpMovImmVar, Reg: r, Name: name}
}

// Mov returns `mov dst, src`.
func Mov(dst, src Register64) Instruction {
	return Instruction{Op: OpMov, Reg: dst, Src: src}
}

// MovPtr8Imm returns `mov byte [r], imm`.
func MovPtr8Imm(r Register64, imm uint8) Instruction {
	return Instruction{Op: OpMovPtr8Imm, Reg: r, Imm: uint64(imm)}
}

// MovPtr16Imm returns `mov word [r], imm`.
func MovPtr16Imm(r Register64, imm uint16) Instruction {
	return Instruction{Op: OpMovPtr16Imm, Reg: r, Imm: uint64(imm)}
}

// MovPtr32Imm returns `mov dword [r], imm`.
func MovPtr32Imm(r Register64, imm uint32) Instruction {
	return Instruction{Op: OpMovPtr32Imm, Reg: r, Imm: uint64(imm)}
}

// MovPtr64Imm returns `mov qword [r], imm`.
func MovPtr64Imm(r Register64, imm uint64) Instruction {
	return Instruction{Op: OpMovPtr64Imm, Reg: r, Imm: imm}
}

// AddImm returns `add r, imm`.
func AddImm(r Register64, imm uint64) Instruction {
	return Instruction{Op: OpAddImm, Reg: r, Imm: imm}
}

// SubImm returns `sub r, imm`.
func SubImm(r Register64, imm uint64) Instruction {
	return Instruction{Op: OpSubImm, Reg: r, Imm: imm}
}

// AddPtr8Imm returns `add byte [r], imm`.
func AddPtr8Imm(r Register64, imm uint8) Instruction {
	return Instruction{Op: OpAddPtr8Imm, Reg: r, Imm: uint64(imm)}
}

// AddPtr16Imm returns `add word [r], imm`.
func AddPtr16Imm(r Register64, imm uint16) Instruction {
	return Instruction{Op: OpAddPtr16Imm, Reg: r, Imm: uint64(imm)}
}

// AddPtr32Imm returns `add dword [r], imm`.
func AddPtr32Imm(r Register64, imm uint32) Instruction {
	return Instruction{Op: OpAddPtr32Imm, Reg: r, Imm: uint64(imm)}
}

// AddPtr64Imm returns `add qword [r], imm`.
func AddPtr64Imm(r Register64, imm uint64) Instruction {
	return Instruction{Op: OpAddPtr64Imm, Reg: r, Imm: imm}
}

// IsZero returns `test r, r`.
func IsZero(r Register64) Instruction {
	return Instruction{Op: OpIsZero, Reg: r}
}

// IsZeroPtr8 returns `cmp byte [r], 0`.
func IsZeroPtr8(r Register64) Instruction {
	return Instruction{Op: OpIsZeroPtr8, Reg: r}
}

// JumpZero returns `jz label`.
func JumpZero(label string) Instruction {
	return Instruction{Op: OpJumpZero, Name: label}
}

// JumpNonZero returns `jnz label`.
func JumpNonZero(label string) Instruction {
	return Instruction{Op: OpJumpNonZero, Name: label}
}

// Jump returns `jmp label`.
func Jump(label string) Instruction {
	return Instruction{Op: OpJump, Name: label}
}

// Label returns the position marker `name:`.
func Label(name string) Instruction {
	return Instruction{Op: OpLabel, Name: name}
}

// Data returns a named data item for the .data section.
func Data(name string, data []byte) Instruction {
	return Instruction{Op: OpData, Name: name, Data: data}
}

// Equal reports whether the two instructions are identical, including data
// payloads. Instruction contains a slice, so == is not available.
func (in Instruction) Equal(other Instruction) bool {
	return in.Op == other.Op &&
		in.Reg == other.Reg &&
		in.Src == other.Src &&
		in.Imm == other.Imm &&
		in.Name == other.Name &&
		in.Text == other.Text &&
		in.Eff == other.Eff &&
		bytes.Equal(in.Data, other.Data)
}

// formatData renders bytes as a nasm db operand, collecting printable runs
// into quoted strings.
func formatData(data []byte) string {
	var b strings.Builder
	inString := false
	for _, v := range data {
		if v == ' ' || (v > ' ' && v < 0x7f && v != '"') {
			if !inString {
				b.WriteByte('"')
				inString = true
			}
			b.WriteByte(v)
		} else {
			if inString {
				b.WriteString(`",`)
				inString = false
			}
			fmt.Fprintf(&b, "%#x,", v)
		}
	}
	s := strings.TrimSuffix(b.String(), ",")
	if inString {
		s += `"`
	}
	return s
}

// Source renders the instruction as nasm assembly.
func (in Instruction) Source() string {
	switch in.Op {
	case OpBlackBox, OpNamedBlackBox:
		return in.Text
	case OpMovImm:
		if in.Imm == 0 {
			return fmt.Sprintf("xor %s, %s", in.Reg, in.Reg)
		}
		return fmt.Sprintf("mov %s, %d", in.Reg, in.Imm)
	case OpMovImmVar:
		return fmt.Sprintf("mov %s, %s", in.Reg, in.Name)
	case OpMov:
		return fmt.Sprintf("mov %s, %s", in.Reg, in.Src)
	case OpMovPtr8Imm:
		return fmt.Sprintf("mov byte [%s], %d", in.Reg, in.Imm)
	case OpMovPtr16Imm:
		return fmt.Sprintf("mov word [%s], %d", in.Reg, in.Imm)
	case OpMovPtr32Imm:
		return fmt.Sprintf("mov dword [%s], %d", in.Reg, in.Imm)
	case OpMovPtr64Imm:
		return fmt.Sprintf("mov qword [%s], %d", in.Reg, in.Imm)
	case OpAddImm:
		if in.Imm == 1 {
			return fmt.Sprintf("inc %s", in.Reg)
		}
		return fmt.Sprintf("add %s, %d", in.Reg, in.Imm)
	case OpSubImm:
		if in.Imm == 1 {
			return fmt.Sprintf("dec %s", in.Reg)
		}
		return fmt.Sprintf("sub %s, %d", in.Reg, in.Imm)
	case OpAddPtr8Imm:
		switch in.Imm {
		case 255:
			return fmt.Sprintf("dec byte [%s]", in.Reg)
		case 1:
			return fmt.Sprintf("inc byte [%s]", in.Reg)
		}
		return fmt.Sprintf("add byte [%s], %d", in.Reg, in.Imm)
	case OpAddPtr16Imm:
		return fmt.Sprintf("add word [%s], %d", in.Reg, in.Imm)
	case OpAddPtr32Imm:
		return fmt.Sprintf("add dword [%s], %d", in.Reg, in.Imm)
	case OpAddPtr64Imm:
		return fmt.Sprintf("add qword [%s], %d", in.Reg, in.Imm)
	case OpIsZero:
		return fmt.Sprintf("test %s, %s", in.Reg, in.Reg)
	case OpIsZeroPtr8:
		return fmt.Sprintf("cmp byte [%s], 0", in.Reg)
	case OpJumpZero:
		return "jz " + in.Name
	case OpJumpNonZero:
		return "jnz " + in.Name
	case OpJump:
		return "jmp " + in.Name
	case OpLabel:
		return in.Name + ":"
	case OpData:
		return in.Name + ": db " + formatData(in.Data)
	}
	return fmt.Sprintf("; unknown op %d", in.Op)
}

func (in Instruction) String() string {
	return in.Source()
}

// Effects returns the instruction's effects. ok is false for data items,
// which are never executed.
func (in Instruction) Effects() (eff Effects, ok bool) {
	switch in.Op {
	case OpBlackBox, OpNamedBlackBox:
		return in.Eff, true
	case OpMovImm, OpMovImmVar, OpMov, OpMovPtr8Imm, OpMovPtr16Imm, OpMovPtr32Imm, OpMovPtr64Imm:
		return EffReg, true
	case OpAddImm, OpSubImm, OpAddPtr8Imm, OpAddPtr16Imm, OpAddPtr32Imm, OpAddPtr64Imm:
		if in.Imm == 0 {
			return EffFlag, true
		}
		return EffArithmetic, true
	case OpIsZero, OpIsZeroPtr8:
		return EffFlag, true
	case OpJumpZero, OpJumpNonZero, OpJump:
		return EffJump, true
	case OpLabel:
		// A jump can end here.
		return EffLabel, true
	case OpData:
		return Effects{}, false
	}
	return Effects{}, false
}

// AffectsZeroFlag reports whether executing the instruction may change ZF.
func (in Instruction) AffectsZeroFlag() bool {
	eff, ok := in.Effects()
	return ok && eff.Flags
}

// ReadsZF reports whether the instruction observes the zero flag. Black
// boxes are assumed to.
func (in Instruction) ReadsZF() bool {
	switch in.Op {
	case OpBlackBox, OpNamedBlackBox, OpJumpZero, OpJumpNonZero:
		return true
	}
	return false
}

// Combine fuses the receiver with the instruction following it when the
// pair has a shorter equivalent. It returns the replacement sequence, which
// is empty when the two cancel out, or the original pair when no fusion
// applies.
func (in Instruction) Combine(other Instruction) []Instruction {
	switch in.Op {
	case OpAddPtr8Imm:
		if other.Op == OpAddPtr8Imm && in.Reg == other.Reg {
			return []Instruction{AddPtr8Imm(in.Reg, uint8(in.Imm)+uint8(other.Imm))}
		}
		if other.Op == OpMovPtr8Imm && in.Reg == other.Reg {
			// The store overwrites the addition.
			return []Instruction{MovPtr8Imm(in.Reg, uint8(other.Imm))}
		}
	case OpMovPtr8Imm:
		if other.Op == OpAddPtr8Imm && in.Reg == other.Reg {
			return []Instruction{MovPtr8Imm(in.Reg, uint8(in.Imm)+uint8(other.Imm))}
		}
	case OpAddImm:
		if other.Op == OpAddImm && in.Reg == other.Reg {
			return []Instruction{AddImm(in.Reg, in.Imm+other.Imm)}
		}
		if other.Op == OpSubImm && in.Reg == other.Reg {
			switch {
			case in.Imm == other.Imm:
				return []Instruction{}
			case in.Imm < other.Imm:
				return []Instruction{SubImm(in.Reg, other.Imm-in.Imm)}
			default:
				return []Instruction{AddImm(in.Reg, in.Imm-other.Imm)}
			}
		}
	case OpSubImm:
		if other.Op == OpAddImm && in.Reg == other.Reg {
			// sub a; add b == add b; sub a
			return other.Combine(in)
		}
		if other.Op == OpSubImm && in.Reg == other.Reg {
			return []Instruction{SubImm(in.Reg, in.Imm+other.Imm)}
		}
	case OpJumpZero:
		if other.Op == OpJumpZero {
			return []Instruction{in}
		}
	case OpJumpNonZero:
		if other.Op == OpJumpNonZero {
			return []Instruction{in}
		}
	}
	return []Instruction{in, other}
}
