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

// Command brain-opt compiles Brainfuck sources to native x86-64
// executables, using nasm and the platform linker for the final steps.
//
//	brain-opt hello.bf -o hello
//	brain-opt hello.bf -a -          dump the generated assembly
//	brain-opt hello.bf -t macos      cross-emit for another target
//	brain-opt hello.bf -i            run in the reference interpreter
package main
