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

package evm

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, code string, cc *callctx.CallContext) *types.ExecutionState {
	t.Helper()
	res, err := New(Config{}).Execute(context.Background(), common.FromHex(code), cc)
	require.NoError(t, err)
	s, err := res.Normalize()
	require.NoError(t, err)
	return s
}

func TestExecuteMemoryAndHash(t *testing.T) {
	s := run(t, "6010600052601160002000", nil)

	want := crypto.Keccak256(make([]byte, 0x11))
	require.Len(t, s.Stack, 1)
	assert.Equal(t, want, s.Stack[0].Bytes())

	require.Len(t, s.Memory, 32)
	assert.Equal(t, byte(0x10), s.Memory[31])
	require.NotNil(t, s.PC)
	assert.Equal(t, uint64(10), *s.PC)
	require.NotNil(t, s.TotalGas)
	assert.Equal(t, uint64(DefaultGasLimit), *s.TotalGas)
	require.NotNil(t, s.CurrentGas)
	assert.Less(t, *s.CurrentGas, *s.TotalGas)
	assert.Empty(t, s.ReturnValue)
}

// Stack comes back top first.
func TestExecuteStackOrder(t *testing.T) {
	s := run(t, "600160026003", nil)
	assert.Equal(t, []string{"3", "2", "1"}, s.StackHex())
	assert.Equal(t, uint64(6), *s.PC)
}

func TestExecuteStorage(t *testing.T) {
	s := run(t, "602a600155", nil)
	require.Len(t, s.Storage, 1)
	v := s.Storage[*uint256.NewInt(1)]
	assert.Equal(t, uint64(0x2a), v.Uint64())
}

// The final value of a slot is reported, even when a later write clears it.
func TestExecuteStorageFinalValue(t *testing.T) {
	s := run(t, "602a600155600b600255600060015500", nil)
	require.Len(t, s.Storage, 2)
	one := s.Storage[*uint256.NewInt(1)]
	two := s.Storage[*uint256.NewInt(2)]
	assert.True(t, one.IsZero())
	assert.Equal(t, uint64(0x0b), two.Uint64())
}

func TestExecuteCallContext(t *testing.T) {
	cc, err := callctx.Build("5", callctx.Gwei, "0x00000000000000000000000000000000000000000000000000000000000000ff")
	require.NoError(t, err)

	s := run(t, "34600035", cc)
	require.Len(t, s.Stack, 2)
	assert.Equal(t, uint64(0xff), s.Stack[0].Uint64())
	assert.Equal(t, uint64(5_000_000_000), s.Stack[1].Uint64())
}

func TestExecuteRevert(t *testing.T) {
	// SSTORE, then revert with one byte of memory.
	s := run(t, "600160015560aa6000526001601ffd", nil)
	assert.Equal(t, []byte{0xaa}, s.ReturnValue)
	assert.Empty(t, s.Storage)
}

func TestExecuteReturn(t *testing.T) {
	s := run(t, "60bb6000526001601ff3", nil)
	assert.Equal(t, []byte{0xbb}, s.ReturnValue)
}

func TestExecuteInvalidOpcode(t *testing.T) {
	_, err := New(Config{}).Execute(context.Background(), []byte{0x60, 0x01, 0xfe}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pc 2")
}

func TestExecuteOutOfGas(t *testing.T) {
	// JUMPDEST PUSH1 0 JUMP loops until the gas runs out.
	_, err := New(Config{GasLimit: 10_000}).Execute(context.Background(), common.FromHex("5b600056"), nil)
	require.Error(t, err)
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).Execute(ctx, []byte{0x00}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// A run cancelled midway stops the interpreter instead of letting it burn the
// remaining gas.
func TestExecuteCancelledWhileRunning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(Config{GasLimit: math.MaxUint64}).Execute(ctx, common.FromHex("5b600056"), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteEmptyCode(t *testing.T) {
	s := run(t, "", nil)
	assert.Empty(t, s.Stack)
	assert.Empty(t, s.Memory)
	assert.Nil(t, s.PC)
}
