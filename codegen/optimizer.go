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
	log "github.com/sirupsen/logrus"

	"github.com/pkg/errors"
)

// PassFunc transforms an instruction buffer. Pass functions are pure: they
// may mutate and return their argument but hold no state across calls.
type PassFunc func([]Instruction) []Instruction

// Pass is a named optimization with the passes that must re-run after it.
type Pass struct {
	name    string
	fn      PassFunc
	cleanup []PassID
}

// PassID identifies a registered pass within one Optimizer.
type PassID int

// Optimizer is a registry of passes. Pass names are unique; registering a
// duplicate is a programming error and panics.
type Optimizer struct {
	passes []Pass
}

// NewOptimizer returns an empty pass registry.
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// AddPass registers a pass with its cleanup passes and returns its id.
func (o *Optimizer) AddPass(name string, fn PassFunc, cleanup ...PassID) PassID {
	for _, p := range o.passes {
		if p.name == name {
			panic("pass named " + name + " already exists")
		}
	}
	o.passes = append(o.passes, Pass{name: name, fn: fn, cleanup: cleanup})
	return PassID(len(o.passes) - 1)
}

// scheduleBound, times the number of registered passes, caps total pass
// executions per Run. The cleanup-edge
// dedup makes the queue drain quickly in practice; the bound turns an
// unexpected nonterminating schedule into an error instead of a hang.
const scheduleBound = 64

// Run executes every registered pass over ops until the work queue drains.
// The queue is LIFO, seeded with all passes in registration order. After
// each pass the data items are moved to the end of the buffer and the
// pass's cleanups are enqueued, skipping a cleanup already on top of the
// queue. Panics from pass functions are reported as errors.
func (o *Optimizer) Run(ops []Instruction) (result []Instruction, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("optimizer: %v", e)
		}
	}()

	queue := make([]PassID, len(o.passes))
	for i := range o.passes {
		queue[len(queue)-1-i] = PassID(i)
	}

	executed := 0
	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		pass := o.passes[id]

		executed++
		if executed > scheduleBound*len(o.passes) {
			return nil, errors.Errorf("optimizer: pass schedule did not terminate after %d runs", executed)
		}

		log.Tracef("optimization: %s", pass.name)
		ops = pass.fn(ops)
		ops = MoveDataToEnd(ops)

		for _, c := range pass.cleanup {
			if len(queue) > 0 && queue[len(queue)-1] == c {
				continue
			}
			queue = append(queue, c)
		}
	}
	return ops, nil
}

// DefaultOptimizer returns the standard pass schedule.
func DefaultOptimizer() *Optimizer {
	o := NewOptimizer()
	removeUnusedLabels := o.AddPass("remove_unused_labels", RemoveUnusedLabels)
	o.AddPass("start_cells", StartCells, removeUnusedLabels)
	zeroLoop := o.AddPass("zero_loop", ZeroLoop)
	zeroFlags := o.AddPass("zero_flags", ZeroFlags, removeUnusedLabels)
	removeNops := o.AddPass("remove_nops", RemoveNops, removeUnusedLabels)
	adjacent := o.AddPass("adjacent", Adjacent, removeNops)
	o.AddPass("adjacent_mem_movs", AdjacentMemMovs, removeNops, zeroLoop, adjacent)
	o.AddPass("constant_output", ConstantOutput)
	deadJumps := o.AddPass("dead_jumps", DeadJumps, removeUnusedLabels, removeNops)
	o.AddPass("jump_skip_recheck", JumpSkipRecheck, removeUnusedLabels, deadJumps)
	o.AddPass("remove_dead_code", RemoveDeadCode, removeUnusedLabels, removeNops)
	o.AddPass("exit", Exit, removeUnusedLabels, deadJumps, zeroFlags, removeNops)
	return o
}

// Optimize runs the default pass schedule over ops.
func Optimize(ops []Instruction) ([]Instruction, error) {
	return DefaultOptimizer().Run(ops)
}
