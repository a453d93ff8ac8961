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

package bf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dentosal/brain-opt/lang/bf"
)

func TestParse(t *testing.T) {
	tokens, err := bf.Parse("[->+<?]")
	require.NoError(t, err)
	assert.Equal(t, []bf.Token{
		bf.LoopBegin,
		bf.Decrement,
		bf.Next,
		bf.Increment,
		bf.Prev,
		bf.LoopEnd,
	}, tokens)
}

func TestParse_comments(t *testing.T) {
	tokens, err := bf.Parse("add two and\nthree, then print.")
	require.NoError(t, err)
	// only the ',' and '.' above are commands
	assert.Equal(t, []bf.Token{bf.Input, bf.Output}, tokens)
}

func TestParse_unbalanced(t *testing.T) {
	_, err := bf.Parse("[[]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbalanced '['")

	_, err = bf.Parse("[]]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbalanced ']'")
}

func TestTokenString(t *testing.T) {
	src := "><+-.,[]"
	tokens, err := bf.Parse(src)
	require.NoError(t, err)
	var round string
	for _, tok := range tokens {
		round += tok.String()
	}
	assert.Equal(t, src, round)
}
