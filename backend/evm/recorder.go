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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/tracing"
	gethvm "github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
)

// 记录器 (Recorder): 跟踪顶层调用帧（深度 1）。解释器在代码末尾会隐式执行 STOP，
// 因此最后一次 OnOpcode 回调看到的就是停机时的栈和内存。
// 存储 (Storage): 只记录被 SSTORE 写过的槽位，运行结束后再从状态中读取最终值。

// recorder captures the top frame at every instruction. The interpreter runs
// an implicit STOP past the end of the code, so the last snapshot is always
// taken at the halting instruction.
type recorder struct {
	contract common.Address

	stack   []uint256.Int
	memory  []byte
	pc      uint64
	gas     uint64
	stepped bool

	// slots written by SSTORE in the contract's storage, at any depth.
	slots map[common.Hash]struct{}
}

func newRecorder(contract common.Address) *recorder {
	return &recorder{
		contract: contract,
		slots:    make(map[common.Hash]struct{}),
	}
}

func (r *recorder) hooks() *tracing.Hooks {
	return &tracing.Hooks{
		OnOpcode: r.onOpcode,
	}
}

func (r *recorder) onOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	if gethvm.OpCode(op) == gethvm.SSTORE && scope.Address() == r.contract {
		if stack := scope.StackData(); len(stack) > 0 {
			r.slots[stack[len(stack)-1].Bytes32()] = struct{}{}
		}
	}
	if depth != 1 {
		return
	}
	r.pc, r.gas, r.stepped = pc, gas, true
	r.stack = append(r.stack[:0], scope.StackData()...)
	r.memory = append(r.memory[:0], scope.MemoryData()...)
}

// result converts the last snapshot into a native result. The stack is
// bottom first as the interpreter keeps it. Storage holds the final value of
// every written slot, as returned by get; a nil get leaves storage empty.
func (r *recorder) result(gasLimit uint64, get func(slot common.Hash) common.Hash) *normalize.NativeResult {
	out := &normalize.NativeResult{
		Stack:   make([]hexutil.U256, len(r.stack)),
		Memory:  make([]hexutil.Uint64, len(r.memory)),
		Storage: make(map[hexutil.U256]hexutil.U256, len(r.slots)),
	}
	for i := range r.stack {
		out.Stack[i] = hexutil.U256(r.stack[i])
	}
	for i, b := range r.memory {
		out.Memory[i] = hexutil.Uint64(b)
	}
	if get != nil {
		for slot := range r.slots {
			val := get(slot)
			k := new(uint256.Int).SetBytes(slot[:])
			v := new(uint256.Int).SetBytes(val[:])
			out.Storage[hexutil.U256(*k)] = hexutil.U256(*v)
		}
	}
	total := hexutil.Uint64(gasLimit)
	out.TotalGas = &total
	if r.stepped {
		pc, gas := hexutil.Uint64(r.pc), hexutil.Uint64(r.gas)
		out.PC, out.CurrentGas = &pc, &gas
	}
	return out
}
