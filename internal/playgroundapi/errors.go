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

package playgroundapi

import (
	"errors"

	"github.com/kkrt-labs/kakarot-playground/core/asm"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/dispatch"
)

const (
	errCodeInvalidParams = -32602 // malformed user input, run not attempted
	errCodeStaleRun      = -32001 // superseded by a newer run
	errCodeUnavailable   = -32002 // optional component not configured
)

// lineError describes one faulty source line.
type lineError struct {
	Line    int    `json:"line"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// inputError is returned for input rejected before dispatch. Assembler errors
// carry every faulty line as data.
// inputError 表示在分发前被拒绝的输入，汇编错误会附带所有出错的行。
type inputError struct {
	error
	lines []lineError
}

func (e *inputError) ErrorCode() int { return errCodeInvalidParams }

func (e *inputError) ErrorData() interface{} {
	if len(e.lines) == 0 {
		return nil
	}
	return e.lines
}

func newInputError(err error) *inputError {
	ie := &inputError{error: err}
	var joined interface{ Unwrap() []error }
	errs := []error{err}
	if errors.As(err, &joined) {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var se *asm.SyntaxError
		if errors.As(e, &se) {
			ie.lines = append(ie.lines, lineError{Line: se.Line, Token: se.Token, Message: se.Err.Error()})
		}
	}
	return ie
}

// apiError wraps errors that are not about the input but deserve their own
// code.
type apiError struct {
	error
	code int
}

func (e *apiError) ErrorCode() int { return e.code }

// wrapError maps core errors to JSON-RPC errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var (
		se *asm.SyntaxError
		fe *callctx.FormatError
		oe *callctx.OverflowError
	)
	switch {
	case errors.As(err, &se), errors.As(err, &fe), errors.As(err, &oe),
		errors.Is(err, asm.ErrTruncatedOperand), errors.Is(err, asm.ErrInvalidBytecode):
		return newInputError(err)
	case errors.Is(err, dispatch.ErrStaleRun):
		return &apiError{err, errCodeStaleRun}
	case errors.Is(err, ErrNoKakarot), errors.Is(err, ErrNoL1):
		return &apiError{err, errCodeUnavailable}
	}
	return err
}
