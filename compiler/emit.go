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
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Dentosal/brain-opt/abi"
	"github.com/Dentosal/brain-opt/codegen"
	"github.com/Dentosal/brain-opt/internal/boi"
)

// tapeLength is the traditional cell count of the language.
const tapeLength = 30000

// tapePointer is the register holding the tape pointer throughout the
// program body. Generated code never clobbers it outside pointer motion.
const tapePointer = codegen.RBX

// header is the entry prologue: allocate the tape on the stack, zero it,
// store the tape base in the pointer register, and reserve shadow space so
// that callees cannot trash the first cells.
var header = []codegen.Instruction{
	codegen.BlackBox("sub rsp, $arraylen", codegen.EffVolatile),
	codegen.BlackBox("mov rcx, $arraylen", codegen.EffVolatile),
	codegen.BlackBox("mov rdi, rsp", codegen.EffVolatile),
	codegen.BlackBox("xor al, al", codegen.EffVolatile),
	codegen.BlackBox("rep stosb", codegen.EffVolatile),
	codegen.BlackBox("mov $pointer, rsp", codegen.EffVolatile),
	codegen.BlackBox("sub rsp, 8", codegen.EffVolatile),
}

// WriteAssembly lowers the Step program to instructions, runs the low-IR
// optimizer, and writes the complete nasm source to w.
func (s *State) WriteAssembly(w io.Writer, target abi.ABI) error {
	ops := target.Operations()

	var body []codegen.Instruction
	body = append(body, ops.Startup()...)
	for _, st := range s.steps {
		body = append(body, st.instructions(tapePointer, ops)...)
	}
	body = append(body, ops.Exit()...)

	body, err := codegen.Optimize(body)
	if err != nil {
		return errors.Wrap(err, "codegen")
	}
	code, data := codegen.SeparateData(body)

	info := ops.LinkerInfo()
	replace := strings.NewReplacer(
		"$entrypoint", info.Entrypoint,
		"$pointer", tapePointer.String(),
		"$arraylen", strconv.Itoa(tapeLength),
	).Replace

	ew := boi.NewErrWriter(w)
	ew.WriteString(info.Assembly())
	ew.WriteString("section .text\n")
	ew.WriteString(replace("$entrypoint:\n"))
	for _, in := range header {
		ew.WriteString(replace(in.Source()))
		ew.WriteString("\n")
	}
	for _, in := range code {
		ew.WriteString(replace(in.Source()))
		ew.WriteString("\n")
	}
	ew.WriteString("section .data\n")
	for _, in := range data {
		ew.WriteString(in.Source())
		ew.WriteString("\n")
	}
	return ew.Err
}

// Assembly returns the complete nasm source as a string.
func (s *State) Assembly(target abi.ABI) (string, error) {
	var b strings.Builder
	if err := s.WriteAssembly(&b, target); err != nil {
		return "", err
	}
	return b.String(), nil
}
