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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every defined byte must map to a name that maps back to the same byte.
func TestDefaultTableBijective(t *testing.T) {
	tbl := DefaultTable()
	seen := make(map[string]OpCode)
	for i := 0; i < 256; i++ {
		e, ok := tbl.ByOp(OpCode(i))
		if !ok {
			continue
		}
		if prev, dup := seen[e.Name]; dup {
			t.Fatalf("name %s used by %#x and %#x", e.Name, byte(prev), i)
		}
		seen[e.Name] = e.Op
		back, ok := tbl.ByName(e.Name)
		if !ok || back.Op != OpCode(i) {
			t.Errorf("%s: round trip gave %v (found %v), want %#x", e.Name, back.Op, ok, i)
		}
	}
	assert.Len(t, tbl.Entries(), len(seen))
}

func TestTableLookups(t *testing.T) {
	tbl := DefaultTable()
	tests := []struct {
		name string
		op   OpCode
		imm  int
		gas  uint64
	}{
		{"STOP", STOP, 0, 0},
		{"push1", PUSH1, 1, 3},
		{"PUSH32", PUSH32, 32, 3},
		{"PUSH0", PUSH0, 0, 2},
		{"MSTORE", MSTORE, 0, 3},
		{"sha3", KECCAK256, 0, 30},
		{"DIFFICULTY", PREVRANDAO, 0, 2},
		{"DUP16", DUP16, 0, 3},
		{"SWAP1", SWAP1, 0, 3},
		{"LOG4", LOG4, 0, 1875},
		{"INVALID", INVALID, 0, 0},
	}
	for _, tt := range tests {
		e, ok := tbl.ByName(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.op, e.Op, tt.name)
		assert.Equal(t, tt.imm, e.Immediate, tt.name)
		assert.Equal(t, tt.gas, e.Gas, tt.name)
	}
	// Aliases resolve but never become the canonical name.
	e, _ := tbl.ByOp(KECCAK256)
	assert.Equal(t, "KECCAK256", e.Name)

	_, ok := tbl.ByOp(0x0c)
	assert.False(t, ok)
	_, ok = tbl.ByName("NOPE")
	assert.False(t, ok)
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Entry{{Op: 1, Name: "A"}, {Op: 1, Name: "B"}}, nil)
	if !errors.Is(err, ErrDuplicateOpcode) {
		t.Errorf("duplicate byte: have %v", err)
	}
	_, err = NewTable([]Entry{{Op: 1, Name: "A"}, {Op: 2, Name: "a"}}, nil)
	if !errors.Is(err, ErrDuplicateMnemonic) {
		t.Errorf("duplicate name: have %v", err)
	}
	_, err = NewTable([]Entry{{Op: 1, Name: "A", Immediate: 33}}, nil)
	if !errors.Is(err, ErrBadImmediate) {
		t.Errorf("bad immediate: have %v", err)
	}
	_, err = NewTable([]Entry{{Op: 1, Name: "A"}}, map[string]OpCode{"B": 2})
	if err == nil {
		t.Error("alias to undefined opcode accepted")
	}
}

func TestOpCodeString(t *testing.T) {
	assert.Equal(t, "PUSH1", PUSH1.String())
	assert.Equal(t, "opcode 0xc not defined", OpCode(0x0c).String())
	assert.Equal(t, MSTORE, StringToOp("MSTORE"))
	assert.Equal(t, INVALID, StringToOp("BOGUS"))
	assert.True(t, Unknown(0x0c).Name == InvalidName && !Unknown(0x0c).Known())
	e, _ := DefaultTable().ByOp(INVALID)
	assert.True(t, e.Known())
}
