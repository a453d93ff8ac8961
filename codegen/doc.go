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

// Package codegen models x86-64 instructions at a semantic granularity and
// optimizes instruction buffers with a set of peephole passes.
//
// Instructions carry an Effects value describing what architectural state
// they may change (flags, registers, control flow, stack, io). Raw assembly
// enters the buffer as black boxes with declared effects; the optimizer
// treats them as barriers. Labels are pessimistic: since any jump may land
// on one, flags and registers count as clobbered there.
//
// Passes are pure functions over instruction buffers, registered by name
// with a list of cleanup passes to run after them. The scheduler pops a
// LIFO queue seeded with every pass, and enqueues cleanups after each run;
// enqueuing is skipped when the cleanup already sits on top of the queue,
// which is what makes the schedule terminate. After every pass, data items
// migrate to the end of the buffer.
package codegen
