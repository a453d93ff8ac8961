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

package vm

import (
	"io"

	"github.com/pkg/errors"

	"github.com/Dentosal/brain-opt/lang/bf"
)

// mode tells the Run loop what to do after a token: continue, or scroll to
// the matching bracket.
type mode int

const (
	modeNormal mode = iota
	modeScrollForwards
	modeScrollBackwards
)

func (i *Instance) readByte() (byte, error) {
	if i.input == nil {
		return 0, nil
	}
	var buf [1]byte
	n, err := i.input.Read(buf[:])
	for n == 0 && err == nil {
		n, err = i.input.Read(buf[:])
	}
	if n > 0 {
		return buf[0], nil
	}
	if err == io.EOF {
		// EOF reads as zero, matching compiled code.
		return 0, nil
	}
	return 0, errors.Wrap(err, "read input")
}

func (i *Instance) writeByte(v byte) error {
	if i.output == nil {
		return nil
	}
	_, err := i.output.Write([]byte{v})
	return errors.Wrap(err, "write output")
}

func (i *Instance) step(token bf.Token) (mode, error) {
	switch token {
	case bf.Next:
		i.pointer++
		if i.pointer == len(i.cells) {
			i.cells = append(i.cells, 0)
		}
	case bf.Prev:
		if i.pointer == 0 {
			return modeNormal, errors.New("pointer moved left of the tape origin")
		}
		i.pointer--
	case bf.Increment:
		i.cells[i.pointer]++
	case bf.Decrement:
		i.cells[i.pointer]--
	case bf.Output:
		return modeNormal, i.writeByte(i.cells[i.pointer])
	case bf.Input:
		v, err := i.readByte()
		if err != nil {
			return modeNormal, err
		}
		i.cells[i.pointer] = v
	case bf.LoopBegin:
		if i.cells[i.pointer] == 0 {
			return modeScrollForwards, nil
		}
	case bf.LoopEnd:
		if i.cells[i.pointer] != 0 {
			return modeScrollBackwards, nil
		}
	}
	return modeNormal, nil
}

// Run executes the token program. Tokens must have balanced brackets
// (bf.Parse guarantees this).
func (i *Instance) Run(tokens []bf.Token) error {
	index := 0
	for index < len(tokens) {
		i.insCount++
		m, err := i.step(tokens[index])
		if err != nil {
			return err
		}
		switch m {
		case modeNormal:
			index++
		case modeScrollForwards:
			level := 1
			for level > 0 {
				index++
				switch tokens[index] {
				case bf.LoopBegin:
					level++
				case bf.LoopEnd:
					level--
				}
			}
		case modeScrollBackwards:
			level := 1
			for level > 0 {
				index--
				switch tokens[index] {
				case bf.LoopEnd:
					level++
				case bf.LoopBegin:
					level--
				}
			}
		}
	}
	return nil
}
