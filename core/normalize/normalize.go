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

// Package normalize converts the raw results of the execution backends into
// the canonical execution state.
// Package normalize 将各执行后端的原始结果转换为规范执行状态。
package normalize

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/types"
)

var (
	ErrMalformedTrace  = errors.New("malformed trace")
	ErrMalformedResult = errors.New("malformed result")
)

// Result is a raw backend result that can be converted into the canonical
// state. Normalize must not modify the receiver, so it may be called any
// number of times with equal results.
type Result interface {
	Normalize() (*types.ExecutionState, error)
}

// NativeResult is the structured result returned by an interpreter that
// models stack, memory and storage directly. The stack is bottom first and
// every memory word carries a single byte.
// NativeResult 是解释器直接返回的结构化结果。栈底在前，每个内存字保存一个字节。
type NativeResult struct {
	Stack       []hexutil.U256                `json:"stack"`
	Memory      []hexutil.Uint64              `json:"memory"`
	Storage     map[hexutil.U256]hexutil.U256 `json:"storage,omitempty"`
	PC          *hexutil.Uint64               `json:"pc,omitempty"`
	TotalGas    *hexutil.Uint64               `json:"totalGas,omitempty"`
	CurrentGas  *hexutil.Uint64               `json:"currentGas,omitempty"`
	ReturnValue hexutil.Bytes                 `json:"returnValue,omitempty"`
}

// Normalize reverses the stack into top-first order and renders memory as
// the concatenation of each word padded to two hex digits.
func (r *NativeResult) Normalize() (*types.ExecutionState, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: empty result", ErrMalformedResult)
	}
	stack := make([]uint256.Int, len(r.Stack))
	for i, w := range r.Stack {
		stack[len(r.Stack)-1-i] = uint256.Int(w)
	}
	var sb strings.Builder
	for i, w := range r.Memory {
		if w > 0xff {
			return nil, fmt.Errorf("%w: memory word %d is %#x, exceeds one byte", ErrMalformedResult, i, uint64(w))
		}
		fmt.Fprintf(&sb, "%02x", uint64(w))
	}
	memory, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	storage := make(map[uint256.Int]uint256.Int, len(r.Storage))
	for k, v := range r.Storage {
		storage[uint256.Int(k)] = uint256.Int(v)
	}
	fields := types.StateFields{
		Stack:      stack,
		Memory:     memory,
		Storage:    storage,
		PC:         (*uint64)(r.PC),
		TotalGas:   (*uint64)(r.TotalGas),
		CurrentGas: (*uint64)(r.CurrentGas),
	}
	if r.ReturnValue != nil {
		fields.ReturnValue = r.ReturnValue
	}
	return types.NewExecutionState(fields), nil
}

// 证明记录 (Trace transcript): 一个扁平的 felt 数组。第一个元素是栈长度 n（十六进制），
// 随后 n 个元素是栈字，其余元素（去掉末尾的保留元素）是内存字节。

// Transcript is the flat felt array recovered from a zk-backend execution
// record. Felts[0] holds the stack length n in hex, Felts[1:1+n] are the
// stack words top first, and the remaining felts up to the last Trailer
// elements are memory bytes. The trailing elements are reserved and ignored.
// Each stack word is a single felt, not a (low, high) Uint256 pair.
type Transcript struct {
	Felts   []string `json:"felts"`
	Trailer int      `json:"trailer"`
}

// Normalize slices the felt array by its length prefix. Program counter, gas
// figures and return value are not part of a transcript and stay unset.
func (t *Transcript) Normalize() (*types.ExecutionState, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: empty transcript", ErrMalformedTrace)
	}
	if t.Trailer < 0 {
		return nil, fmt.Errorf("%w: negative trailer %d", ErrMalformedTrace, t.Trailer)
	}
	end := len(t.Felts) - t.Trailer
	if end < 1 {
		return nil, fmt.Errorf("%w: %d felts, need length prefix and %d trailer", ErrMalformedTrace, len(t.Felts), t.Trailer)
	}
	count, err := ParseFelt(t.Felts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: stack length: %v", ErrMalformedTrace, err)
	}
	if !count.IsUint64() || count.Uint64() > uint64(end-1) {
		return nil, fmt.Errorf("%w: stack length %s exceeds %d available felts", ErrMalformedTrace, count.Dec(), end-1)
	}
	n := int(count.Uint64())

	stack := make([]uint256.Int, n)
	for i, f := range t.Felts[1 : 1+n] {
		w, err := ParseFelt(f)
		if err != nil {
			return nil, fmt.Errorf("%w: stack word %d: %v", ErrMalformedTrace, i, err)
		}
		stack[i] = *w
	}
	memFelts := t.Felts[1+n : end]
	memory := make([]byte, len(memFelts))
	for i, f := range memFelts {
		w, err := ParseFelt(f)
		if err != nil {
			return nil, fmt.Errorf("%w: memory word %d: %v", ErrMalformedTrace, i, err)
		}
		if !w.IsUint64() || w.Uint64() > 0xff {
			return nil, fmt.Errorf("%w: memory word %d is %s, exceeds one byte", ErrMalformedTrace, i, w.Hex())
		}
		memory[i] = byte(w.Uint64())
	}
	return types.NewExecutionState(types.StateFields{Stack: stack, Memory: memory}), nil
}

// ParseFelt decodes a hex felt, with or without 0x prefix, into a 256-bit
// word.
func ParseFelt(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) == 0 {
		return nil, errors.New("empty felt")
	}
	b, ok := new(big.Int).SetString(s, 16)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("invalid felt %q", s)
	}
	w, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("felt %q exceeds 256 bits", s)
	}
	return w, nil
}
