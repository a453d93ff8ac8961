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

// Package bf provides the Brainfuck token type and the source tokenizer.
package bf

import "github.com/pkg/errors"

// Token is one of the eight Brainfuck commands.
type Token byte

// The eight commands. Any other byte in a source file is a comment.
const (
	Next      Token = iota // >
	Prev                   // <
	Increment              // +
	Decrement              // -
	Output                 // .
	Input                  // ,
	LoopBegin              // [
	LoopEnd                // ]
)

var glyphs = [...]byte{'>', '<', '+', '-', '.', ',', '[', ']'}

func (t Token) String() string {
	return string(glyphs[t])
}

// tokenFor maps a source byte to its token. ok is false for comment bytes.
func tokenFor(c byte) (t Token, ok bool) {
	for i, g := range glyphs {
		if g == c {
			return Token(i), true
		}
	}
	return 0, false
}

// Parse tokenizes src, skipping comment bytes, and validates bracket
// balance. The returned token slice is safe to hand to the compiler: every
// LoopEnd has a matching LoopBegin.
func Parse(src string) ([]Token, error) {
	var result []Token
	for i := 0; i < len(src); i++ {
		if t, ok := tokenFor(src[i]); ok {
			result = append(result, t)
		}
	}

	level := 0
	for _, t := range result {
		switch t {
		case LoopBegin:
			level++
		case LoopEnd:
			if level == 0 {
				return nil, errors.New("unbalanced ']'")
			}
			level--
		}
	}
	if level != 0 {
		return nil, errors.New("unbalanced '['")
	}
	return result, nil
}
