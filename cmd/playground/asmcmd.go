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

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/kkrt-labs/kakarot-playground/core/asm"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/vm"
	"github.com/kkrt-labs/kakarot-playground/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	asmCommand = &cli.Command{
		Action:    assembleCmd,
		Name:      "asm",
		Usage:     "Assemble mnemonic source into bytecode",
		ArgsUsage: "<file>",
		Description: `
Reads mnemonic source, one instruction per line, from the given file or from
stdin if no file (or "-") is given, and prints the bytecode as hex. Every
faulty line is reported.`,
	}
	disasmCommand = &cli.Command{
		Action:    disassembleCmd,
		Name:      "disasm",
		Usage:     "Disassemble bytecode into an instruction listing",
		ArgsUsage: "<hex>",
		Flags:     []cli.Flag{renderFlag},
		Description: `
Decodes the given bytecode, or bytecode read from stdin, and prints one
instruction per line prefixed with its program counter. With --render the
output is mnemonic source that assembles back to the same bytecode.`,
	}
	contextCommand = &cli.Command{
		Action: contextCmd,
		Name:   "context",
		Usage:  "Validate and encode a call value and call data",
		Flags:  contextFlags,
	}
)

// readInput returns the first argument, or stdin if there is none or it is
// "-". With fromFile the argument names a file.
func readInput(ctx *cli.Context, fromFile bool) (string, error) {
	arg := ctx.Args().First()
	if arg == "" || arg == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	if !fromFile {
		return arg, nil
	}
	b, err := os.ReadFile(arg)
	return string(b), err
}

func assembleCmd(ctx *cli.Context) error {
	source, err := readInput(ctx, true)
	if err != nil {
		return err
	}
	code, err := asm.Assemble(source, vm.DefaultTable())
	if err != nil {
		return syntaxReport(err)
	}
	fmt.Fprintln(ctx.App.Writer, hexutil.Encode(code))
	return nil
}

// syntaxReport lists every faulty line of a failed assembly.
func syntaxReport(err error) error {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return err
	}
	lines := make([]string, 0, len(joined.Unwrap()))
	for _, e := range joined.Unwrap() {
		lines = append(lines, "  line "+e.Error())
	}
	return fmt.Errorf("assembly failed:\n%s", strings.Join(lines, "\n"))
}

func disassembleCmd(ctx *cli.Context) error {
	input, err := readInput(ctx, false)
	if err != nil {
		return err
	}
	if !ctx.Bool(renderFlag.Name) {
		return asm.PrintDisassembled(ctx.App.Writer, input, vm.DefaultTable())
	}
	code, err := asm.ParseBytecode(input)
	if err != nil {
		return err
	}
	instrs, err := asm.Disassemble(code, vm.DefaultTable())
	fmt.Fprintln(ctx.App.Writer, asm.Render(instrs))
	return err
}

// callContext builds the call context from the context flags.
func callContext(ctx *cli.Context) (*callctx.CallContext, error) {
	return callctx.Build(ctx.String(valueFlag.Name), flags.GlobalUnit(ctx, unitFlag.Name), ctx.String(callDataFlag.Name))
}

func contextCmd(ctx *cli.Context) error {
	cc, err := callContext(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "value:    %s wei (%s)\n", cc.Value.Dec(), cc.Value.Hex())
	fmt.Fprintf(ctx.App.Writer, "calldata: %s (%d bytes)\n", hexutil.Encode(cc.Data), len(cc.Data))
	return nil
}
