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

// Package types contains the canonical execution state both backends are
// reconciled into.
package types

import (
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// 规范执行状态 (Canonical ExecutionState): 两个后端的结果在展示前都被转换成的统一形状。
// 栈按栈顶在前的顺序保存；内存是连续的字节序列。

// ExecutionState is the backend independent result of one run. A state is
// built once by NewExecutionState and must not be modified afterwards; a new
// run produces a new state.
// ExecutionState 是一次运行与后端无关的结果，构造后不可修改。
type ExecutionState struct {
	Stack       []uint256.Int               // top of stack first
	Memory      []byte                      // contiguous memory
	Storage     map[uint256.Int]uint256.Int // slot -> value
	PC          *uint64                     // program counter at halt, if known
	TotalGas    *uint64                     // gas made available to the run, if known
	CurrentGas  *uint64                     // gas left at halt, if known
	ReturnValue []byte                      // returned data, nil if unknown
}

// StateFields is the input to NewExecutionState. Unknown numeric fields are
// left nil.
type StateFields struct {
	Stack       []uint256.Int
	Memory      []byte
	Storage     map[uint256.Int]uint256.Int
	PC          *uint64
	TotalGas    *uint64
	CurrentGas  *uint64
	ReturnValue []byte
}

// NewExecutionState copies f into a fresh state so later changes to the
// caller's slices and maps cannot leak into it.
func NewExecutionState(f StateFields) *ExecutionState {
	s := &ExecutionState{
		Stack:   append([]uint256.Int{}, f.Stack...),
		Memory:  append([]byte{}, f.Memory...),
		Storage: make(map[uint256.Int]uint256.Int, len(f.Storage)),
	}
	for k, v := range f.Storage {
		s.Storage[k] = v
	}
	s.PC = copyUint64(f.PC)
	s.TotalGas = copyUint64(f.TotalGas)
	s.CurrentGas = copyUint64(f.CurrentGas)
	if f.ReturnValue != nil {
		s.ReturnValue = append([]byte{}, f.ReturnValue...)
	}
	return s
}

func copyUint64(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// StorageSlots returns the written slots in ascending order.
func (s *ExecutionState) StorageSlots() []uint256.Int {
	slots := make([]uint256.Int, 0, len(s.Storage))
	for k := range s.Storage {
		slots = append(slots, k)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Lt(&slots[j]) })
	return slots
}

// StackHex renders the stack words as bare lower-case hex, top first.
func (s *ExecutionState) StackHex() []string {
	out := make([]string, len(s.Stack))
	for i := range s.Stack {
		out[i] = bareHex(&s.Stack[i])
	}
	return out
}

// MemoryHex renders memory as one contiguous hex string without prefix.
func (s *ExecutionState) MemoryHex() string {
	return hex.EncodeToString(s.Memory)
}

func bareHex(v *uint256.Int) string {
	return v.Hex()[2:]
}

type storageJSON struct {
	Slot  string `json:"slot"`
	Value string `json:"value"`
}

type executionStateJSON struct {
	Stack          []string        `json:"stack"`
	Memory         string          `json:"memory"`
	Storage        []storageJSON   `json:"storage"`
	ProgramCounter *hexutil.Uint64 `json:"programCounter"`
	TotalGas       *hexutil.Uint64 `json:"totalGas"`
	CurrentGas     *hexutil.Uint64 `json:"currentGas"`
	ReturnValue    *hexutil.Bytes  `json:"returnValue"`
}

// MarshalJSON renders the state in the shape the playground UI displays.
func (s *ExecutionState) MarshalJSON() ([]byte, error) {
	enc := executionStateJSON{
		Stack:   s.StackHex(),
		Memory:  s.MemoryHex(),
		Storage: make([]storageJSON, 0, len(s.Storage)),
	}
	for _, slot := range s.StorageSlots() {
		v := s.Storage[slot]
		enc.Storage = append(enc.Storage, storageJSON{Slot: slot.Hex(), Value: v.Hex()})
	}
	enc.ProgramCounter = (*hexutil.Uint64)(s.PC)
	enc.TotalGas = (*hexutil.Uint64)(s.TotalGas)
	enc.CurrentGas = (*hexutil.Uint64)(s.CurrentGas)
	if s.ReturnValue != nil {
		rv := hexutil.Bytes(s.ReturnValue)
		enc.ReturnValue = &rv
	}
	return json.Marshal(&enc)
}
