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
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/kkrt-labs/kakarot-playground/core/asm"
	"github.com/kkrt-labs/kakarot-playground/core/vm"
	"github.com/kkrt-labs/kakarot-playground/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	runCommand = &cli.Command{
		Action:    runCmd,
		Name:      "run",
		Usage:     "Run a program on the reference EVM and on Kakarot",
		ArgsUsage: "<hex>",
		Flags:     append(append([]cli.Flag{codeFlag, sourceFlag, gasLimitFlag, jsonFlag}, contextFlags...), networkFlags...),
		Description: `
Runs the program on both backends concurrently and prints their final
execution states side by side. The program is given as bytecode (--code or
the first argument) or as mnemonic source (--source). A backend that fails is
reported in its own column without hiding the other one.`,
	}
	transcriptCommand = &cli.Command{
		Action:    transcriptCmd,
		Name:      "transcript",
		Usage:     "Fetch the execution state of a Kakarot transaction",
		ArgsUsage: "<txhash>",
		Flags:     append([]cli.Flag{jsonFlag}, networkFlags...),
	}
	fetchCodeCommand = &cli.Command{
		Action:    fetchCodeCmd,
		Name:      "fetchcode",
		Usage:     "Load the runtime code of an L1 contract",
		ArgsUsage: "<address>",
		Flags:     append([]cli.Flag{renderFlag}, networkFlags...),
	}
)

var errNoProgram = errors.New("no program given, use --code, --source or an argument")

// loadProgram returns the bytecode selected by the run flags.
func loadProgram(ctx *cli.Context) ([]byte, error) {
	if err := flags.CheckExclusive(ctx, codeFlag, sourceFlag); err != nil {
		return nil, err
	}
	switch {
	case ctx.IsSet(sourceFlag.Name):
		source, err := os.ReadFile(ctx.String(sourceFlag.Name))
		if err != nil {
			return nil, err
		}
		code, err := asm.Assemble(string(source), vm.DefaultTable())
		if err != nil {
			return nil, syntaxReport(err)
		}
		return code, nil
	case ctx.IsSet(codeFlag.Name):
		return asm.ParseBytecode(ctx.String(codeFlag.Name))
	case ctx.NArg() > 0:
		return asm.ParseBytecode(ctx.Args().First())
	}
	return nil, errNoProgram
}

func runCmd(ctx *cli.Context) error {
	code, err := loadProgram(ctx)
	if err != nil {
		return err
	}
	cc, err := callContext(ctx)
	if err != nil {
		return err
	}
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	services, err := makeServices(ctx.Context, &cfg)
	if err != nil {
		return err
	}
	defer closeServices(services)

	out, err := services.Run(ctx.Context, code, cc)
	if err != nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		return printJSON(ctx.App.Writer, out)
	}
	printOutcome(ctx.App.Writer, out)
	return nil
}

func transcriptCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected one transaction hash")
	}
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	services, err := makeServices(ctx.Context, &cfg)
	if err != nil {
		return err
	}
	defer closeServices(services)

	tr, err := services.Transcript(ctx.Context, ctx.Args().First())
	if err != nil {
		return err
	}
	state, err := tr.Normalize()
	if err != nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		return printJSON(ctx.App.Writer, state)
	}
	fmt.Fprintln(ctx.App.Writer, "explorer:", cfg.Env.TxURL(ctx.Args().First()))
	return printJSON(ctx.App.Writer, state)
}

func fetchCodeCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected one contract address")
	}
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	services, err := makeServices(ctx.Context, &cfg)
	if err != nil {
		return err
	}
	defer closeServices(services)

	code, err := services.FetchCode(ctx.Context, ctx.Args().First())
	if err != nil {
		return err
	}
	if !ctx.Bool(renderFlag.Name) {
		fmt.Fprintln(ctx.App.Writer, hexutil.Encode(code))
		return nil
	}
	instrs, err := asm.Disassemble(code, vm.DefaultTable())
	fmt.Fprintln(ctx.App.Writer, asm.Render(instrs))
	return err
}
