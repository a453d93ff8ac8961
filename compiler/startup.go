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

import "github.com/pkg/errors"

// tape is the symbolic tape of the startup evaluator. It grows on write
// and reads zero outside the touched range.
type tape struct {
	cells []byte
}

func (t *tape) add(index int, v byte) {
	for len(t.cells) <= index {
		t.cells = append(t.cells, 0)
	}
	t.cells[index] += v
}

func (t *tape) at(index int) byte {
	if index < len(t.cells) {
		return t.cells[index]
	}
	return 0
}

// trim drops trailing zero cells.
func (t *tape) trim() {
	n := len(t.cells)
	for n > 0 && t.cells[n-1] == 0 {
		n--
	}
	t.cells = t.cells[:n]
}

// evalState is the startup evaluator state: position in the Step program,
// symbolic tape, pointer and buffered output.
type evalState struct {
	index   int
	tape    tape
	pointer int
	output  []byte
}

// stepInterpreter executes Steps symbolically until the program terminates
// or input is required.
type stepInterpreter struct {
	steps  []Step
	labels map[Label]int
	state  evalState
}

func newStepInterpreter(steps []Step) *stepInterpreter {
	labels := make(map[Label]int)
	for i, st := range steps {
		if st.Kind == StepLabel {
			labels[st.L] = i
		}
	}
	return &stepInterpreter{steps: steps, labels: labels}
}

func (si *stepInterpreter) done() bool {
	return si.state.index == len(si.steps)
}

func (si *stepInterpreter) jumpTo(l Label) error {
	i, ok := si.labels[l]
	if !ok {
		return errors.Errorf("missing label %s", l)
	}
	si.state.index = i
	return nil
}

// step executes one Step. It returns false without advancing when the next
// Step needs input. Moving the pointer left of the tape origin means the
// source program is ill-formed; that is an error, not a silent wrap.
func (si *stepInterpreter) step() (bool, error) {
	st := si.steps[si.state.index]
	switch st.Kind {
	case StepNext:
		p := si.state.pointer + int(st.N)
		if p < si.state.pointer {
			return false, errors.Errorf("pointer overflow at step %d", si.state.index)
		}
		si.state.pointer = p
	case StepPrev:
		p := si.state.pointer - int(st.N)
		if p < 0 {
			return false, errors.Errorf("pointer underflow at step %d", si.state.index)
		}
		si.state.pointer = p
	case StepAdd:
		si.state.tape.add(si.state.pointer, st.V)
	case StepJumpTo:
		if err := si.jumpTo(st.L); err != nil {
			return false, err
		}
	case StepJumpToIf:
		if st.Cond == (si.state.tape.at(si.state.pointer) != 0) {
			if err := si.jumpTo(st.L); err != nil {
				return false, err
			}
		}
	case StepLabel:
		// position marker only
	case StepOutput:
		si.state.output = append(si.state.output, si.state.tape.at(si.state.pointer))
	case StepInput:
		return false, nil
	}
	si.state.index++
	return true, nil
}

// emitOutput appends Steps that print each byte of out and leave the
// current cell zeroed: add the byte, output it, then drive the cell back
// to zero by adding 1 until it wraps around.
func (s *State) emitOutput(dst []Step, out []byte) []Step {
	for _, v := range out {
		dst = append(dst, Add(v), Output)
		zero := s.getLabel()
		dst = append(dst, Mark(zero), Add(1), JumpToIf(true, zero))
	}
	return dst
}

// startupFuel bounds symbolic execution so that a program which never
// performs input still compiles in finite time. Stopping early is safe:
// the blocked-case rewrite resumes at the exact stopping point.
const startupFuel = 1 << 22

// optimizeStartup runs the program symbolically until it terminates, needs
// input, or runs out of fuel. A program with no reachable Input reduces to
// a plain print of its output. Otherwise the executed prefix is replaced
// by the buffered output, a materialization of the tape contents, a
// pointer fix-up, and a jump to the position where evaluation stopped.
func (s *State) optimizeStartup() error {
	si := newStepInterpreter(s.steps)
	for fuel := startupFuel; fuel > 0 && !si.done(); fuel-- {
		ok, err := si.step()
		if err != nil {
			return errors.Wrap(err, "startup evaluation")
		}
		if !ok {
			break
		}
	}

	if si.done() {
		// Whole execution complete: the program takes no input, so just
		// print the captured output and exit.
		s.steps = s.emitOutput(nil, si.state.output)
		return nil
	}

	si.state.tape.trim()
	end := si.state

	newSteps := s.emitOutput(nil, end.output)

	// Materialize tape contents left to right.
	tapeLen := len(end.tape.cells)
	for _, v := range end.tape.cells {
		newSteps = append(newSteps, Add(v), Next(1))
	}

	// Put the pointer where evaluation left it.
	if tapeLen > end.pointer {
		newSteps = append(newSteps, Prev(uint64(tapeLen-end.pointer)))
	} else if tapeLen < end.pointer {
		newSteps = append(newSteps, Next(uint64(end.pointer-tapeLen)))
	}

	// Resume the original program exactly where evaluation stopped.
	if end.index != 0 {
		resume := s.getLabel()
		spliced := make([]Step, 0, len(s.steps)+2)
		spliced = append(spliced, JumpTo(resume))
		spliced = append(spliced, s.steps[:end.index]...)
		spliced = append(spliced, Mark(resume))
		spliced = append(spliced, s.steps[end.index:]...)
		s.steps = append(newSteps, spliced...)
	} else {
		s.steps = append(newSteps, s.steps...)
	}
	return nil
}
