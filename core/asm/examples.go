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

package asm

// CodeType tells how editor contents should be read.
type CodeType string

const (
	Bytecode CodeType = "Bytecode"
	Mnemonic CodeType = "Mnemonic"
)

// Examples are the programs loaded into a fresh editor. Both entries describe
// the same program: store 0x10 in memory and hash one byte of it.
var Examples = map[CodeType][]string{
	Bytecode: {"6010600052601160002000"},
	Mnemonic: {`PUSH1 10
PUSH1 00
MSTORE
PUSH1 11
PUSH1 00
SHA3
STOP`},
}
