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

package vm

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidName is the mnemonic given to bytes that have no table entry.
const InvalidName = "INVALID"

var (
	ErrDuplicateOpcode   = errors.New("duplicate opcode")
	ErrDuplicateMnemonic = errors.New("duplicate mnemonic")
	ErrBadImmediate      = errors.New("operand length out of range")
)

// Entry describes one opcode: its byte value, canonical mnemonic, the number
// of operand bytes that follow it and its static gas cost.
// Entry 描述一个操作码：字节值、规范助记符、紧随其后的操作数字节数以及静态 gas 成本。
type Entry struct {
	Op        OpCode
	Name      string
	Immediate int
	Gas       uint64
}

// Known reports whether the entry comes from a table rather than being the
// placeholder for an undefined byte.
func (e Entry) Known() bool {
	return e.Name != "" && !(e.Name == InvalidName && e.Op != INVALID)
}

// Unknown returns the placeholder entry used for a byte with no table entry.
// It carries the raw byte so listings stay lossless.
func Unknown(b byte) Entry {
	return Entry{Op: OpCode(b), Name: InvalidName}
}

// Table is a read-only bijective opcode lookup.
// Table 是一个只读的双向操作码查找表。
type Table interface {
	// ByOp returns the entry for the given byte value.
	ByOp(op OpCode) (Entry, bool)
	// ByName returns the entry for a mnemonic. Lookup is case-insensitive and
	// accepts the table's aliases.
	ByName(name string) (Entry, bool)
	// Entries returns all entries in byte order.
	Entries() []Entry
}

type table struct {
	byOp    [256]*Entry
	byName  map[string]*Entry
	entries []Entry
}

// NewTable builds an immutable table from entries. Every byte value and every
// mnemonic may appear at most once. Aliases are extra input spellings that
// resolve to an existing canonical entry; they never appear in output.
func NewTable(entries []Entry, aliases map[string]OpCode) (Table, error) {
	t := &table{
		byName:  make(map[string]*Entry, len(entries)+len(aliases)),
		entries: make([]Entry, 0, len(entries)),
	}
	for _, e := range entries {
		if e.Immediate < 0 || e.Immediate > 32 {
			return nil, fmt.Errorf("%w: %s has %d", ErrBadImmediate, e.Name, e.Immediate)
		}
		if t.byOp[e.Op] != nil {
			return nil, fmt.Errorf("%w: %#x (%s and %s)", ErrDuplicateOpcode, byte(e.Op), t.byOp[e.Op].Name, e.Name)
		}
		name := strings.ToUpper(e.Name)
		if _, ok := t.byName[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMnemonic, name)
		}
		e.Name = name
		entry := e
		t.byOp[e.Op] = &entry
		t.byName[name] = &entry
	}
	for alias, op := range aliases {
		alias = strings.ToUpper(alias)
		if _, ok := t.byName[alias]; ok {
			return nil, fmt.Errorf("%w: alias %s", ErrDuplicateMnemonic, alias)
		}
		target := t.byOp[op]
		if target == nil {
			return nil, fmt.Errorf("alias %s points to undefined opcode %#x", alias, byte(op))
		}
		t.byName[alias] = target
	}
	for _, e := range t.byOp {
		if e != nil {
			t.entries = append(t.entries, *e)
		}
	}
	return t, nil
}

func (t *table) ByOp(op OpCode) (Entry, bool) {
	if e := t.byOp[op]; e != nil {
		return *e, true
	}
	return Entry{}, false
}

func (t *table) ByName(name string) (Entry, bool) {
	if e, ok := t.byName[strings.ToUpper(name)]; ok {
		return *e, true
	}
	return Entry{}, false
}

func (t *table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// defaultTable is the Cancun legacy-code instruction set.
var defaultTable = mustTable(cancunEntries(), map[string]OpCode{
	"SHA3":       KECCAK256,
	"DIFFICULTY": PREVRANDAO,
})

// DefaultTable returns the built-in Cancun opcode table.
// DefaultTable 返回内置的 Cancun 操作码表。
func DefaultTable() Table {
	return defaultTable
}

func mustTable(entries []Entry, aliases map[string]OpCode) Table {
	t, err := NewTable(entries, aliases)
	if err != nil {
		panic(err)
	}
	return t
}

func cancunEntries() []Entry {
	entries := []Entry{
		{Op: STOP, Name: "STOP", Gas: GasZero},
		{Op: ADD, Name: "ADD", Gas: GasFastestStep},
		{Op: MUL, Name: "MUL", Gas: GasFastStep},
		{Op: SUB, Name: "SUB", Gas: GasFastestStep},
		{Op: DIV, Name: "DIV", Gas: GasFastStep},
		{Op: SDIV, Name: "SDIV", Gas: GasFastStep},
		{Op: MOD, Name: "MOD", Gas: GasFastStep},
		{Op: SMOD, Name: "SMOD", Gas: GasFastStep},
		{Op: ADDMOD, Name: "ADDMOD", Gas: GasMidStep},
		{Op: MULMOD, Name: "MULMOD", Gas: GasMidStep},
		{Op: EXP, Name: "EXP", Gas: GasSlowStep},
		{Op: SIGNEXTEND, Name: "SIGNEXTEND", Gas: GasFastStep},

		{Op: LT, Name: "LT", Gas: GasFastestStep},
		{Op: GT, Name: "GT", Gas: GasFastestStep},
		{Op: SLT, Name: "SLT", Gas: GasFastestStep},
		{Op: SGT, Name: "SGT", Gas: GasFastestStep},
		{Op: EQ, Name: "EQ", Gas: GasFastestStep},
		{Op: ISZERO, Name: "ISZERO", Gas: GasFastestStep},
		{Op: AND, Name: "AND", Gas: GasFastestStep},
		{Op: OR, Name: "OR", Gas: GasFastestStep},
		{Op: XOR, Name: "XOR", Gas: GasFastestStep},
		{Op: NOT, Name: "NOT", Gas: GasFastestStep},
		{Op: BYTE, Name: "BYTE", Gas: GasFastestStep},
		{Op: SHL, Name: "SHL", Gas: GasFastestStep},
		{Op: SHR, Name: "SHR", Gas: GasFastestStep},
		{Op: SAR, Name: "SAR", Gas: GasFastestStep},

		{Op: KECCAK256, Name: "KECCAK256", Gas: GasKeccak256},

		{Op: ADDRESS, Name: "ADDRESS", Gas: GasQuickStep},
		{Op: BALANCE, Name: "BALANCE", Gas: GasWarmAccess},
		{Op: ORIGIN, Name: "ORIGIN", Gas: GasQuickStep},
		{Op: CALLER, Name: "CALLER", Gas: GasQuickStep},
		{Op: CALLVALUE, Name: "CALLVALUE", Gas: GasQuickStep},
		{Op: CALLDATALOAD, Name: "CALLDATALOAD", Gas: GasFastestStep},
		{Op: CALLDATASIZE, Name: "CALLDATASIZE", Gas: GasQuickStep},
		{Op: CALLDATACOPY, Name: "CALLDATACOPY", Gas: GasFastestStep},
		{Op: CODESIZE, Name: "CODESIZE", Gas: GasQuickStep},
		{Op: CODECOPY, Name: "CODECOPY", Gas: GasFastestStep},
		{Op: GASPRICE, Name: "GASPRICE", Gas: GasQuickStep},
		{Op: EXTCODESIZE, Name: "EXTCODESIZE", Gas: GasWarmAccess},
		{Op: EXTCODECOPY, Name: "EXTCODECOPY", Gas: GasWarmAccess},
		{Op: RETURNDATASIZE, Name: "RETURNDATASIZE", Gas: GasQuickStep},
		{Op: RETURNDATACOPY, Name: "RETURNDATACOPY", Gas: GasFastestStep},
		{Op: EXTCODEHASH, Name: "EXTCODEHASH", Gas: GasWarmAccess},

		{Op: BLOCKHASH, Name: "BLOCKHASH", Gas: GasExtStep},
		{Op: COINBASE, Name: "COINBASE", Gas: GasQuickStep},
		{Op: TIMESTAMP, Name: "TIMESTAMP", Gas: GasQuickStep},
		{Op: NUMBER, Name: "NUMBER", Gas: GasQuickStep},
		{Op: PREVRANDAO, Name: "PREVRANDAO", Gas: GasQuickStep},
		{Op: GASLIMIT, Name: "GASLIMIT", Gas: GasQuickStep},
		{Op: CHAINID, Name: "CHAINID", Gas: GasQuickStep},
		{Op: SELFBALANCE, Name: "SELFBALANCE", Gas: GasFastStep},
		{Op: BASEFEE, Name: "BASEFEE", Gas: GasQuickStep},
		{Op: BLOBHASH, Name: "BLOBHASH", Gas: GasFastestStep},
		{Op: BLOBBASEFEE, Name: "BLOBBASEFEE", Gas: GasQuickStep},

		{Op: POP, Name: "POP", Gas: GasQuickStep},
		{Op: MLOAD, Name: "MLOAD", Gas: GasFastestStep},
		{Op: MSTORE, Name: "MSTORE", Gas: GasFastestStep},
		{Op: MSTORE8, Name: "MSTORE8", Gas: GasFastestStep},
		{Op: SLOAD, Name: "SLOAD", Gas: GasWarmAccess},
		{Op: SSTORE, Name: "SSTORE", Gas: GasZero}, // fully dynamic
		{Op: JUMP, Name: "JUMP", Gas: GasMidStep},
		{Op: JUMPI, Name: "JUMPI", Gas: GasSlowStep},
		{Op: PC, Name: "PC", Gas: GasQuickStep},
		{Op: MSIZE, Name: "MSIZE", Gas: GasQuickStep},
		{Op: GAS, Name: "GAS", Gas: GasQuickStep},
		{Op: JUMPDEST, Name: "JUMPDEST", Gas: GasJumpDest},
		{Op: TLOAD, Name: "TLOAD", Gas: GasWarmAccess},
		{Op: TSTORE, Name: "TSTORE", Gas: GasWarmAccess},
		{Op: MCOPY, Name: "MCOPY", Gas: GasFastestStep},
		{Op: PUSH0, Name: "PUSH0", Gas: GasQuickStep},

		{Op: CREATE, Name: "CREATE", Gas: GasCreate},
		{Op: CALL, Name: "CALL", Gas: GasWarmAccess},
		{Op: CALLCODE, Name: "CALLCODE", Gas: GasWarmAccess},
		{Op: RETURN, Name: "RETURN", Gas: GasZero},
		{Op: DELEGATECALL, Name: "DELEGATECALL", Gas: GasWarmAccess},
		{Op: CREATE2, Name: "CREATE2", Gas: GasCreate},
		{Op: STATICCALL, Name: "STATICCALL", Gas: GasWarmAccess},
		{Op: REVERT, Name: "REVERT", Gas: GasZero},
		{Op: INVALID, Name: InvalidName, Gas: GasZero},
		{Op: SELFDESTRUCT, Name: "SELFDESTRUCT", Gas: GasSelfdestruct},
	}
	for op := PUSH1; op <= PUSH32; op++ {
		entries = append(entries, Entry{Op: op, Name: fmt.Sprintf("PUSH%d", op.Immediates()), Immediate: op.Immediates(), Gas: GasFastestStep})
	}
	for op := DUP1; op <= DUP16; op++ {
		entries = append(entries, Entry{Op: op, Name: fmt.Sprintf("DUP%d", int(op-DUP1)+1), Gas: GasFastestStep})
	}
	for op := SWAP1; op <= SWAP16; op++ {
		entries = append(entries, Entry{Op: op, Name: fmt.Sprintf("SWAP%d", int(op-SWAP1)+1), Gas: GasFastestStep})
	}
	for op := LOG0; op <= LOG4; op++ {
		entries = append(entries, Entry{Op: op, Name: fmt.Sprintf("LOG%d", int(op-LOG0)), Gas: logGas(int(op - LOG0))})
	}
	return entries
}
