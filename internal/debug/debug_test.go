// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package debug

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackFilter(t *testing.T) {
	eval, err := stackFilter("core/dispatch && !backend/evm")
	require.NoError(t, err)

	ok, err := eval.Evaluate(map[string]string{"Value": "goroutine 7 core/dispatch.(*Dispatcher).Run"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eval.Evaluate(map[string]string{"Value": "core/dispatch backend/evm.(*Backend).Execute"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStacks(t *testing.T) {
	all := Handler.Stacks(nil)
	assert.Contains(t, all, "TestStacks")

	filter := "internal/debug"
	filtered := Handler.Stacks(&filter)
	assert.NotEmpty(t, filtered)
	assert.LessOrEqual(t, strings.Count(filtered, "goroutine "), strings.Count(all, "goroutine "))
}

func TestCPUProfile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cpu.prof")
	require.NoError(t, Handler.StartCPUProfile(file))
	assert.Error(t, Handler.StartCPUProfile(file), "second profile")
	require.NoError(t, Handler.StopCPUProfile())
	assert.FileExists(t, file)
	assert.Error(t, Handler.StopCPUProfile())
}
