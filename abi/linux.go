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

package abi

import (
	"fmt"

	"github.com/Dentosal/brain-opt/codegen"
)

// linuxInterface targets x86-64 Linux through libc.
type linuxInterface struct {
	nextLabel int
}

func (li *linuxInterface) getLabel() string {
	result := fmt.Sprintf(".interface_linux%d", li.nextLabel)
	li.nextLabel++
	return result
}

func (li *linuxInterface) LinkerInfo() LinkerInfo {
	return LinkerInfo{
		Entrypoint:   "main",
		Libraries:    []string{"libc"},
		Externs:      []string{"read", "write", "exit"},
		ObjectFormat: "elf64",
		LinkerCmd:    "clang",
		LinkerArgs:   []string{"-no-pie"},
	}
}

func (li *linuxInterface) Startup() []codegen.Instruction {
	return nil
}

func (li *linuxInterface) Exit() []codegen.Instruction {
	return []codegen.Instruction{
		// Undo the tape allocation before handing control to libc.
		codegen.BlackBox("add rsp, $arraylen", codegen.EffVolatile),
		codegen.MovImm(codegen.RDI, 0),
		codegen.NamedBlackBox("exit", "call exit", codegen.EffVolatile),
	}
}

// ReadByte calls read(2): read(0, pointer, 1). A zero return value means
// end of file, in which case the cell is set to 0.
func (li *linuxInterface) ReadByte(pointer codegen.Register64) []codegen.Instruction {
	labelEnd := li.getLabel()
	return []codegen.Instruction{
		codegen.MovImm(codegen.RDI, 0),
		codegen.Mov(codegen.RSI, pointer),
		codegen.MovImm(codegen.RDX, 1),
		codegen.NamedBlackBox("read", "call read", codegen.Effects{
			Flags:     true,
			Registers: true,
			IO:        true,
		}),
		codegen.IsZero(codegen.RAX),
		codegen.JumpNonZero(labelEnd),
		// End of file
		codegen.MovPtr8Imm(codegen.RSI, 0),
		codegen.Label(labelEnd),
	}
}

// WriteBytes calls write(2): write(1, pointer, count).
func (li *linuxInterface) WriteBytes(pointer codegen.Register64, count uint64) []codegen.Instruction {
	return []codegen.Instruction{
		codegen.MovImm(codegen.RDI, 1),
		codegen.Mov(codegen.RSI, pointer),
		codegen.MovImm(codegen.RDX, count),
		codegen.NamedBlackBox("write", "call write", codegen.Effects{
			Flags:     true,
			Registers: true,
			IO:        true,
		}),
	}
}
