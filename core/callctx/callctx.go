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

// Package callctx validates user supplied call value and call data and turns
// them into the parameters both backends execute with.
// Package callctx 校验用户输入的调用金额和调用数据，并生成两个后端共同使用的执行参数。
package callctx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/params"
)

var (
	ErrInvalidValueFormat    = errors.New("invalid value format")
	ErrInvalidCallDataFormat = errors.New("invalid call data format")
	ErrInvalidUnit           = errors.New("invalid value unit")
	ErrValueOverflow         = errors.New("value exceeds 256 bits")
)

// FormatError reports malformed user input.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string { return fmt.Sprintf("%v: %q", e.Err, e.Input) }
func (e *FormatError) Unwrap() error { return e.Err }

// OverflowError reports a call value that does not fit a 256-bit word after
// scaling to wei.
type OverflowError struct {
	Value string
	Unit  Unit
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrValueOverflow, e.Value, e.Unit)
}
func (e *OverflowError) Unwrap() error { return ErrValueOverflow }

// Unit is the denomination a call value is typed in.
// Unit 是调用金额的计价单位。
type Unit int

const (
	Wei Unit = iota
	Gwei
	Finney
	Ether
)

var unitNames = [...]string{Wei: "Wei", Gwei: "Gwei", Finney: "Finney", Ether: "Ether"}

// unitFactors holds the exact power of ten of every unit in wei.
var unitFactors = [...]*uint256.Int{
	Wei:    uint256.NewInt(params.Wei),
	Gwei:   uint256.NewInt(params.GWei),
	Finney: uint256.NewInt(params.Finney),
	Ether:  uint256.NewInt(params.Ether),
}

func (u Unit) String() string {
	if u < 0 || int(u) >= len(unitNames) {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// Factor returns the number of wei in one u.
func (u Unit) Factor() *uint256.Int {
	return new(uint256.Int).Set(unitFactors[u])
}

// Units lists all units, smallest first.
func Units() []Unit {
	return []Unit{Wei, Gwei, Finney, Ether}
}

// ParseUnit resolves a unit name, ignoring case. The empty string is Wei.
func ParseUnit(s string) (Unit, error) {
	if s == "" {
		return Wei, nil
	}
	for i, name := range unitNames {
		if strings.EqualFold(s, name) {
			return Unit(i), nil
		}
	}
	return 0, &FormatError{Input: s, Err: ErrInvalidUnit}
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(input []byte) error {
	v, err := ParseUnit(string(input))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// CallContext holds the canonical parameters of one execution.
// CallContext 保存一次执行的规范参数。
type CallContext struct {
	Value *uint256.Int // call value in wei
	Data  []byte       // call data, whole bytes
}

// Build validates rawValue, scales it from unit to wei and decodes
// rawCallData. Empty inputs give a zero value and empty call data.
// Build 校验 rawValue，按单位换算为 wei，并解码 rawCallData。
func Build(rawValue string, unit Unit, rawCallData string) (*CallContext, error) {
	if unit < Wei || unit > Ether {
		return nil, &FormatError{Input: unit.String(), Err: ErrInvalidUnit}
	}
	value, err := parseValue(rawValue, unit)
	if err != nil {
		return nil, err
	}
	data, err := parseCallData(rawCallData)
	if err != nil {
		return nil, err
	}
	return &CallContext{Value: value, Data: data}, nil
}

func parseValue(raw string, unit Unit) (*uint256.Int, error) {
	if raw == "" {
		return new(uint256.Int), nil
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return nil, &FormatError{Input: raw, Err: ErrInvalidValueFormat}
		}
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		// Only digits got here, so the sole failure left is range.
		return nil, &OverflowError{Value: raw, Unit: unit}
	}
	scaled, overflow := new(uint256.Int).MulOverflow(v, unitFactors[unit])
	if overflow {
		return nil, &OverflowError{Value: raw, Unit: unit}
	}
	return scaled, nil
}

func parseCallData(raw string) ([]byte, error) {
	s := raw
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return []byte{}, nil
	}
	data, err := hexutil.Decode("0x" + s)
	if err != nil {
		return nil, &FormatError{Input: raw, Err: fmt.Errorf("%w: %v", ErrInvalidCallDataFormat, err)}
	}
	return data, nil
}

// Copy returns a deep copy of cc.
func (cc *CallContext) Copy() *CallContext {
	cpy := &CallContext{Value: new(uint256.Int), Data: append([]byte{}, cc.Data...)}
	if cc.Value != nil {
		cpy.Value.Set(cc.Value)
	}
	return cpy
}
