// Copyright 2017 The go-ethereum Authors
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

// Package asm converts between EVM bytecode and its mnemonic assembly form.
// Package asm 在 EVM 字节码和助记符汇编形式之间相互转换。
package asm

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/kkrt-labs/kakarot-playground/core/vm"
)

// 反汇编 (Disassembly): 将字节码转换回人类可读的汇编语言的过程。
// 未知字节不会中止反汇编：EVM 代码中经常内嵌数据，它们按单字节 INVALID 指令输出。

var (
	ErrTruncatedOperand = errors.New("truncated operand")
	ErrInvalidBytecode  = errors.New("invalid bytecode")
)

// Instruction is a single disassembled instruction.
// Instruction 是一条反汇编后的指令。
type Instruction struct {
	PC      uint64   `json:"pc"`
	Entry   vm.Entry `json:"-"`
	Operand []byte   `json:"-"`
}

// String renders the instruction as one line of mnemonic source.
func (in Instruction) String() string {
	if !in.Entry.Known() {
		return fmt.Sprintf("%s ;; 0x%02x", in.Entry.Name, byte(in.Entry.Op))
	}
	if len(in.Operand) > 0 {
		return in.Entry.Name + " " + hex.EncodeToString(in.Operand)
	}
	return in.Entry.Name
}

// Iterator for disassembled EVM instructions
// EVM 反汇编指令的迭代器
type instructionIterator struct {
	table   vm.Table
	code    []byte   // The EVM bytecode to iterate over
	pc      uint64   // The current program counter
	arg     []byte   // The arguments of the current instruction
	entry   vm.Entry // The table entry of the current instruction
	error   error    // Any error encountered during iteration
	started bool     // Flag indicating if the iteration has started
}

// NewInstructionIterator creates a new instruction iterator.
// NewInstructionIterator 创建一个新的指令迭代器。
func NewInstructionIterator(code []byte, table vm.Table) *instructionIterator {
	it := new(instructionIterator)
	it.code = code
	it.table = table
	return it
}

// Next returns true if there is a next instruction and moves on.
// Next 如果存在下一条指令则返回 true 并继续移动。
func (it *instructionIterator) Next() bool {
	if it.error != nil || uint64(len(it.code)) <= it.pc {
		// We previously reached an error or the end.
		return false
	}

	if it.started {
		// Since the iteration has been already started we move to the next instruction.
		it.pc += uint64(len(it.arg)) + 1
	} else {
		// We start the iteration from the first instruction.
		it.started = true
	}

	if uint64(len(it.code)) <= it.pc {
		// We reached the end.
		return false
	}
	b := it.code[it.pc]
	entry, ok := it.table.ByOp(vm.OpCode(b))
	if !ok {
		entry = vm.Unknown(b)
	}
	it.entry = entry
	if a := entry.Immediate; a > 0 {
		u := it.pc + 1 + uint64(a)
		if uint64(len(it.code)) < u {
			it.error = fmt.Errorf("%w at pc %d: %s needs %d bytes, %d left", ErrTruncatedOperand, it.pc, entry.Name, a, uint64(len(it.code))-it.pc-1)
			return false
		}
		it.arg = it.code[it.pc+1 : u]
	} else {
		it.arg = nil
	}
	return true
}

// Error returns any error that may have been encountered.
func (it *instructionIterator) Error() error {
	return it.error
}

// PC returns the PC of the current instruction.
func (it *instructionIterator) PC() uint64 {
	return it.pc
}

// Op returns the opcode of the current instruction.
func (it *instructionIterator) Op() vm.OpCode {
	return it.entry.Op
}

// Entry returns the table entry of the current instruction.
func (it *instructionIterator) Entry() vm.Entry {
	return it.entry
}

// Arg returns the argument of the current instruction.
func (it *instructionIterator) Arg() []byte {
	return it.arg
}

// Disassemble decodes code into instructions. On a truncated trailing
// operand the instructions decoded so far are returned with the error.
// Disassemble 将字节码解码为指令序列。
func Disassemble(code []byte, table vm.Table) ([]Instruction, error) {
	instrs := make([]Instruction, 0)

	it := NewInstructionIterator(code, table)
	for it.Next() {
		in := Instruction{PC: it.PC(), Entry: it.Entry()}
		if arg := it.Arg(); len(arg) > 0 {
			in.Operand = append([]byte(nil), arg...)
		}
		instrs = append(instrs, in)
	}
	return instrs, it.Error()
}

// Render returns the mnemonic source for instrs, one instruction per line.
// Assembling the result yields the original bytecode for known opcodes.
// Render 返回指令序列的助记符源码，每行一条指令。
func Render(instrs []Instruction) string {
	var b strings.Builder
	for i, in := range instrs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(in.String())
	}
	return b.String()
}

// Format returns the human readable listing of instrs, prefixed with the
// program counter.
func Format(instrs []Instruction) []string {
	lines := make([]string, 0, len(instrs))
	for _, in := range instrs {
		if len(in.Operand) > 0 {
			lines = append(lines, fmt.Sprintf("%05x: %v %#x", in.PC, in.Entry.Name, in.Operand))
		} else {
			lines = append(lines, fmt.Sprintf("%05x: %v", in.PC, in.Entry.Name))
		}
	}
	return lines
}

// PrintDisassembled pretty-print all disassembled EVM instructions to w.
// PrintDisassembled 将所有反汇编的 EVM 指令漂亮地打印到 w。
func PrintDisassembled(w io.Writer, code string, table vm.Table) error {
	script, err := ParseBytecode(code)
	if err != nil {
		return err
	}
	instrs, err := Disassemble(script, table)
	for _, line := range Format(instrs) {
		fmt.Fprintln(w, line)
	}
	return err
}

// ParseBytecode decodes bytecode as typed into the editor: an optional 0x
// prefix, hex digits, white space anywhere.
// ParseBytecode 解析编辑器中输入的字节码：可选 0x 前缀，允许任意空白。
func ParseBytecode(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s) == 0 {
		return []byte{}, nil
	}
	code, err := hexutil.Decode("0x" + s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBytecode, err)
	}
	return code, nil
}
