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

// macosInterface targets x86-64 macOS. Symbols carry the Mach-O leading
// underscore and linking goes through ld with libSystem.
type macosInterface struct {
	nextLabel int
}

func (mi *macosInterface) getLabel() string {
	result := fmt.Sprintf(".interface_macos%d", mi.nextLabel)
	mi.nextLabel++
	return result
}

func (mi *macosInterface) LinkerInfo() LinkerInfo {
	return LinkerInfo{
		Entrypoint:   "_main",
		Libraries:    []string{"libc"},
		Externs:      []string{"_read", "_write", "_exit"},
		ObjectFormat: "macho64",
		LinkerCmd:    "ld",
		LinkerArgs:   []string{"-lSystem", "-macosx_version_min", "10.10.0"},
	}
}

func (mi *macosInterface) Startup() []codegen.Instruction {
	return nil
}

func (mi *macosInterface) Exit() []codegen.Instruction {
	return []codegen.Instruction{
		codegen.MovImm(codegen.RDI, 0),
		codegen.NamedBlackBox("exit", "call _exit", codegen.EffVolatile),
	}
}

func (mi *macosInterface) ReadByte(pointer codegen.Register64) []codegen.Instruction {
	labelEnd := mi.getLabel()
	return []codegen.Instruction{
		codegen.MovImm(codegen.RDI, 0),
		codegen.Mov(codegen.RSI, pointer),
		codegen.MovImm(codegen.RDX, 1),
		codegen.NamedBlackBox("read", "call _read", codegen.Effects{
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

func (mi *macosInterface) WriteBytes(pointer codegen.Register64, count uint64) []codegen.Instruction {
	return []codegen.Instruction{
		codegen.MovImm(codegen.RDI, 1),
		codegen.Mov(codegen.RSI, pointer),
		codegen.MovImm(codegen.RDX, count),
		codegen.NamedBlackBox("write", "call _write", codegen.Effects{
			Flags:     true,
			Registers: true,
			IO:        true,
		}),
	}
}
