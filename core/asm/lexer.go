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
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// stateFn is used through the lifetime of the
// lexer to parse the different values at the
// current state.
// stateFn 在词法分析器的生命周期中用于解析当前状态下的不同值
type stateFn func(*lexer) stateFn

// token is emitted when the lexer has discovered
// a new parsable token. These are delivered over
// the tokens channels of the lexer
// token 在词法分析器发现新的可解析标记时发出，通过词法分析器的标记通道传递
type token struct {
	typ    tokenType // 标记类型
	lineno int       // 行号
	text   string    // 标记文本
}

// tokenType are the different types the lexer
// is able to parse and return.
type tokenType int

const (
	eof       tokenType = iota // end of file 文件结束
	lineStart                  // emitted when a line starts 行开始时发出
	lineEnd                    // emitted when a line ends 行结束时发出
	element                    // the mnemonic, first word of a line 助记符，行首的单词
	operand                    // any further word on the line 行内后续的单词
)

func (t tokenType) String() string {
	switch t {
	case eof:
		return "eof"
	case lineStart:
		return "lineStart"
	case lineEnd:
		return "lineEnd"
	case element:
		return "element"
	case operand:
		return "operand"
	}
	return fmt.Sprintf("tokenType(%d)", int(t))
}

// lexer is the basic construct for parsing
// source code and turning them in to tokens.
// Tokens are interpreted by the compiler.
// lexer 是解析源代码并将其转换为标记的基本结构。
type lexer struct {
	input string // input contains the source code of the program

	tokens chan token // tokens is used to deliver tokens to the listener
	state  stateFn    // the current state function

	lineno            int // current line number in the source file
	start, pos, width int // positions for lexing and returning value

	debug bool // flag for triggering debug output
}

// Lex lexes the program with the given source. It returns a channel on which
// the tokens are delivered. The channel is closed after the eof token.
// Lex 使用给定的源代码对程序进行词法分析。它返回一个传递标记的通道。
func Lex(source []byte, debug bool) <-chan token {
	ch := make(chan token)
	l := &lexer{
		input:  string(source),
		tokens: ch,
		state:  lexLine,
		debug:  debug,
	}
	go func() {
		l.emit(lineStart)
		for l.state != nil {
			l.state = l.state(l)
		}
		l.emit(lineEnd)
		l.emit(eof)
		close(l.tokens)
	}()

	return ch
}

// next returns the next rune in the program's source.
func (l *lexer) next() (rune rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return 0
	}
	rune, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return rune
}

// backup backsup the last parsed element (multi-character)
func (l *lexer) backup() {
	l.pos -= l.width
}

// peek returns the next rune but does not advance the seeker
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// ignore advances the seeker and ignores the value
func (l *lexer) ignore() {
	l.start = l.pos
}

// acceptWord advances the seeker over a run of runes that are neither white
// space, a line break nor the start of a comment.
// acceptWord 推进 seeker，直到遇到空白或注释开头
func (l *lexer) acceptWord() {
	for {
		r := l.next()
		if r == 0 || r == '\n' || isSpace(r) {
			l.backup()
			return
		}
		if l.atComment(r) {
			l.backup()
			return
		}
	}
}

// atComment reports whether r, the rune just consumed, opens a comment.
func (l *lexer) atComment(r rune) bool {
	switch r {
	case ';':
		return l.peek() == ';'
	case '/':
		return l.peek() == '/'
	}
	return false
}

// blob returns the current value
func (l *lexer) blob() string {
	return l.input[l.start:l.pos]
}

// Emits a new token on to token channel for processing
// emit 将新标记发射到标记通道进行处理
func (l *lexer) emit(t tokenType) {
	token := token{t, l.lineno, l.blob()}

	if l.debug {
		fmt.Fprintf(os.Stderr, "%04d: (%-20v) %s\n", token.lineno, token.typ, token.text)
	}

	l.tokens <- token
	l.start = l.pos
}

// newline closes the current line and opens the next one.
func (l *lexer) newline() {
	l.emit(lineEnd)
	l.ignore()
	l.lineno++
	l.emit(lineStart)
}

// lexLine is state function for lexing the start of a line. The first word
// of a line is always the element.
// lexLine 是用于词法分析行首的状态函数
func lexLine(l *lexer) stateFn {
	for {
		switch r := l.next(); {
		case r == 0:
			return nil
		case r == '\n':
			l.ignore()
			l.newline()
		case l.atComment(r):
			return lexComment
		case isSpace(r):
			l.ignore()
		default:
			l.acceptWord()
			l.emit(element)
			return lexOperands
		}
	}
}

// lexOperands lexes the words following the element until the end of the
// line.
// lexOperands 解析元素之后直到行尾的单词
func lexOperands(l *lexer) stateFn {
	for {
		switch r := l.next(); {
		case r == 0:
			return nil
		case r == '\n':
			l.ignore()
			l.newline()
			return lexLine
		case l.atComment(r):
			return lexComment
		case isSpace(r):
			l.ignore()
		default:
			l.acceptWord()
			l.emit(operand)
		}
	}
}

// lexComment parses the current position until the end
// of the line and discards the text.
// lexComment 解析当前位置直到行尾并丢弃文本
func lexComment(l *lexer) stateFn {
	if i := strings.IndexByte(l.input[l.pos:], '\n'); i >= 0 {
		l.pos += i
	} else {
		l.pos = len(l.input)
	}
	l.ignore()

	return lexLine
}

func isSpace(t rune) bool {
	return t != '\n' && unicode.IsSpace(t)
}
