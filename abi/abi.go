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

// Package abi decides per-target calling conventions: external symbol
// names, object file format, linker command, and the instruction sequences
// for read, write and exit.
package abi

import (
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/Dentosal/brain-opt/codegen"
)

// LinkerInfo describes how to assemble and link for a target.
type LinkerInfo struct {
	// Entrypoint symbol name, e.g. `main`.
	Entrypoint string
	// Libraries to link against, e.g. `libc`.
	Libraries []string
	// Externs are external symbols, e.g. `write`.
	Externs []string
	// ObjectFormat is the nasm output format, e.g. `elf64`.
	ObjectFormat string
	// LinkerCmd is the linker executable, e.g. `clang`.
	LinkerCmd string
	// LinkerArgs are extra linker arguments, e.g. `-no-pie`.
	LinkerArgs []string
}

// Assembly returns the extern/global header lines.
func (l LinkerInfo) Assembly() string {
	var b strings.Builder
	for _, e := range l.Externs {
		b.WriteString("extern ")
		b.WriteString(e)
		b.WriteByte('\n')
	}
	b.WriteString("global ")
	b.WriteString(l.Entrypoint)
	b.WriteByte('\n')
	return b.String()
}

// Operations supplies the target-specific instruction sequences. The label
// counters inside implementations are stateful; use one Operations value
// per compilation.
type Operations interface {
	// LinkerInfo returns the target's linking descriptor.
	LinkerInfo() LinkerInfo

	// Startup returns code to run before the program body.
	Startup() []codegen.Instruction

	// Exit stops execution with a successful exit code.
	Exit() []codegen.Instruction

	// ReadByte reads a single byte from stdin into [pointer]. On EOF the
	// cell is set to 0.
	ReadByte(pointer codegen.Register64) []codegen.Instruction

	// WriteBytes writes count bytes starting at [pointer] to stdout.
	WriteBytes(pointer codegen.Register64, count uint64) []codegen.Instruction
}

// ABI selects a compilation target.
type ABI int

// Supported targets.
const (
	Linux ABI = iota
	MacOS
)

var abiNames = [...]string{"linux", "macos"}

func (a ABI) String() string {
	if a < 0 || int(a) >= len(abiNames) {
		return "unknown"
	}
	return abiNames[a]
}

// Variants lists the valid target names.
func Variants() []string {
	return abiNames[:]
}

// Parse converts a target name to an ABI.
func Parse(s string) (ABI, error) {
	for i, n := range abiNames {
		if n == s {
			return ABI(i), nil
		}
	}
	return 0, errors.Errorf("unknown target ABI %q", s)
}

// Default returns the ABI of the host platform.
func Default() (ABI, error) {
	switch runtime.GOOS {
	case "linux":
		return Linux, nil
	case "darwin":
		return MacOS, nil
	}
	return 0, errors.Errorf("no target ABI for platform %s", runtime.GOOS)
}

// Operations returns a fresh Operations value for the target.
func (a ABI) Operations() Operations {
	switch a {
	case MacOS:
		return &macosInterface{}
	default:
		return &linuxInterface{}
	}
}
