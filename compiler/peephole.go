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

// combine merges an adjacent Step pair when an equivalent shorter form
// exists: additions fold with 8-bit wrap, pointer motions in the same
// direction sum, and opposing motions cancel toward the dominant
// direction. Labels and control transfers never merge, so cancellation
// cannot cross them. Summed pointer motions must fit in uint64; overflow is
// a compiler bug surfaced as an error.
func combine(a, b Step) ([]Step, error) {
	switch {
	case a.Kind == StepAdd && b.Kind == StepAdd:
		return []Step{Add(a.V + b.V)}, nil

	case a.Kind == StepNext && b.Kind == StepNext:
		if a.N+b.N < a.N {
			return nil, errors.Errorf("pointer delta overflow: %d + %d", a.N, b.N)
		}
		return []Step{Next(a.N + b.N)}, nil

	case a.Kind == StepPrev && b.Kind == StepPrev:
		if a.N+b.N < a.N {
			return nil, errors.Errorf("pointer delta overflow: %d + %d", a.N, b.N)
		}
		return []Step{Prev(a.N + b.N)}, nil

	case a.Kind == StepNext && b.Kind == StepPrev:
		switch {
		case a.N == b.N:
			return []Step{}, nil
		case a.N > b.N:
			return []Step{Next(a.N - b.N)}, nil
		default:
			return []Step{Prev(b.N - a.N)}, nil
		}

	case a.Kind == StepPrev && b.Kind == StepNext:
		switch {
		case a.N == b.N:
			return []Step{}, nil
		case a.N > b.N:
			return []Step{Prev(a.N - b.N)}, nil
		default:
			return []Step{Next(b.N - a.N)}, nil
		}
	}
	return []Step{a, b}, nil
}

// peephole reduces adjacent Step pairs left to right. After a merge the
// same position is examined again so new neighborhoods reduce too; the
// cursor only advances when a pair was left unchanged.
func (s *State) peephole() error {
	index := 0
	for index+1 < len(s.steps) {
		a, b := s.steps[index], s.steps[index+1]
		c, err := combine(a, b)
		if err != nil {
			return errors.Wrap(err, "peephole")
		}
		if len(c) == 2 && c[0] == a && c[1] == b {
			index++
			continue
		}
		s.steps = append(s.steps[:index], append(c, s.steps[index+2:]...)...)
	}
	return nil
}
