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

package asm

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/kkrt-labs/kakarot-playground/core/vm"
)

// 助记符 (Mnemonic): 每一行的第一个单词，按操作码表查找对应的字节值。
// 操作数 (Operand): 十六进制书写的立即数，按大端序左侧补零到操作码声明的宽度。

var (
	ErrUnknownMnemonic       = errors.New("unknown mnemonic")
	ErrOperandLengthMismatch = errors.New("operand length mismatch")
	ErrInvalidHexToken       = errors.New("invalid hex token")
	ErrUnexpectedToken       = errors.New("unexpected token")
)

// SyntaxError is returned for a source line that cannot be assembled.
// SyntaxError 表示某一行源码无法被汇编。
type SyntaxError struct {
	Line  int    // 1-based line number
	Token string // offending token text
	Err   error  // one of the Err* sentinels
	Info  string
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%d: syntax error: %v %q", e.Line, e.Err, e.Token)
	if e.Info != "" {
		msg += ": " + e.Info
	}
	return msg
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func syntaxErr(tok token, err error, info string) error {
	return &SyntaxError{Line: tok.lineno + 1, Token: tok.text, Err: err, Info: info}
}

// Compiler contains information about the parsed source
// and holds the tokens for the program.
// Compiler 包含有关已解析源的信息，并保存程序的标记。
type Compiler struct {
	table  vm.Table
	tokens []token
	out    []byte

	pos   int
	lines int

	debug bool
}

// NewCompiler returns a new allocated compiler resolving mnemonics against
// the given table.
// NewCompiler 返回一个新的已分配的编译器。
func NewCompiler(table vm.Table, debug bool) *Compiler {
	return &Compiler{
		table: table,
		debug: debug,
	}
}

// Feed feeds tokens into ch and are interpreted by
// the compiler. The channel is drained completely.
// Feed 将标记输入到 ch 中，并由编译器解释。
func (c *Compiler) Feed(ch <-chan token) {
	for i := range ch {
		if i.typ == element {
			c.lines++
		}
		c.tokens = append(c.tokens, i)
	}
	if c.debug {
		fmt.Fprintln(os.Stderr, "found", c.lines, "instructions")
	}
}

// Compile compiles the current tokens and returns the bytecode. Every faulty
// line is reported; if any line fails no bytecode is returned.
// Compile 编译当前标记并返回字节码。如果有任何一行失败，则不返回字节码。
func (c *Compiler) Compile() ([]byte, error) {
	var errs []error
	// continue looping over the tokens until
	// the stack has been exhausted.
	for c.pos < len(c.tokens) {
		if err := c.compileLine(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if c.out == nil {
		return []byte{}, nil
	}
	return c.out, nil
}

// next returns the next token and increments the
// position.
func (c *Compiler) next() token {
	token := c.tokens[c.pos]
	c.pos++
	return token
}

// skipLine advances past the end of the current line.
func (c *Compiler) skipLine() {
	for c.pos < len(c.tokens) {
		if t := c.next(); t.typ == lineEnd || t.typ == eof {
			return
		}
	}
}

// compileLine compiles a single line instruction e.g.
// "PUSH1 0a", "MSTORE".
// compileLine 编译单行指令，例如 "PUSH1 0a", "MSTORE"。
func (c *Compiler) compileLine() error {
	n := c.next()
	switch n.typ {
	case eof:
		return nil
	case lineStart:
	default:
		c.skipLine()
		return syntaxErr(n, ErrUnexpectedToken, "expected line start")
	}

	lvalue := c.next()
	switch lvalue.typ {
	case eof, lineEnd:
		return nil
	case element:
		if err := c.compileElement(lvalue); err != nil {
			c.skipLine()
			return err
		}
	default:
		c.skipLine()
		return syntaxErr(lvalue, ErrUnexpectedToken, "expected mnemonic")
	}

	if n := c.next(); n.typ != lineEnd {
		c.skipLine()
		return syntaxErr(n, ErrUnexpectedToken, "expected end of line")
	}
	return nil
}

// compileElement compiles the mnemonic and, for opcodes with immediates, the
// operand that follows it.
func (c *Compiler) compileElement(elem token) error {
	entry, ok := c.table.ByName(elem.text)
	if !ok {
		return syntaxErr(elem, ErrUnknownMnemonic, "")
	}
	var arg *token
	if c.tokens[c.pos].typ == operand {
		t := c.next()
		arg = &t
	}
	switch {
	case entry.Immediate == 0 && arg != nil:
		return syntaxErr(*arg, ErrOperandLengthMismatch, fmt.Sprintf("%s takes no operand", entry.Name))
	case entry.Immediate > 0 && arg == nil:
		return syntaxErr(elem, ErrOperandLengthMismatch, fmt.Sprintf("%s needs a %d byte operand", entry.Name, entry.Immediate))
	}
	c.outputOpcode(entry.Op)
	if arg == nil {
		return nil
	}
	value, err := parseOperand(*arg)
	if err != nil {
		c.out = c.out[:len(c.out)-1]
		return err
	}
	if len(value) > entry.Immediate {
		c.out = c.out[:len(c.out)-1]
		return syntaxErr(*arg, ErrOperandLengthMismatch, fmt.Sprintf("%d bytes given, %s takes %d", len(value), entry.Name, entry.Immediate))
	}
	c.outputBytes(leftPad(value, entry.Immediate))
	return nil
}

// parseOperand decodes a hex operand token. The 0x prefix is optional.
// parseOperand 解码十六进制操作数标记，0x 前缀可选。
func parseOperand(tok token) ([]byte, error) {
	text := tok.text
	if has0xPrefix(text) {
		text = text[2:]
	}
	if len(text) == 0 {
		return nil, syntaxErr(tok, ErrInvalidHexToken, "empty operand")
	}
	b, err := hexutil.Decode("0x" + text)
	if err != nil {
		return nil, syntaxErr(tok, ErrInvalidHexToken, err.Error())
	}
	return b, nil
}

func (c *Compiler) outputOpcode(op vm.OpCode) {
	if c.debug {
		fmt.Printf("%d: %v\n", len(c.out), op)
	}
	c.out = append(c.out, byte(op))
}

// output pushes the value v to the binary stack.
func (c *Compiler) outputBytes(b []byte) {
	if c.debug {
		fmt.Printf("%d: %x\n", len(c.out), b)
	}
	c.out = append(c.out, b...)
}

func leftPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	padded := make([]byte, n)
	copy(padded[n-len(b):], b)
	return padded
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Assemble converts mnemonic source into bytecode. It is a pure function of
// source and table.
// Assemble 将助记符源码转换为字节码。
func Assemble(source string, table vm.Table) ([]byte, error) {
	c := NewCompiler(table, false)
	c.Feed(Lex([]byte(source), false))
	return c.Compile()
}
