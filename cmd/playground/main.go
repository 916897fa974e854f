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

// playground compares EVM and Kakarot execution of the same bytecode.
package main

import (
	"fmt"
	"os"
	"runtime"
	"slices"

	"github.com/kkrt-labs/kakarot-playground/internal/debug"
	"github.com/kkrt-labs/kakarot-playground/internal/flags"
	"github.com/kkrt-labs/kakarot-playground/internal/version"
	"github.com/urfave/cli/v2"
)

const (
	clientIdentifier = "playground" // Client identifier used in version strings
)

var app = flags.NewApp("compare EVM and Kakarot execution of the same bytecode")

var versionCommand = &cli.Command{
	Action:    printVersion,
	Name:      "version",
	Usage:     "Print version numbers",
	ArgsUsage: " ",
}

func init() {
	app.Commands = []*cli.Command{
		asmCommand,
		disasmCommand,
		contextCommand,
		runCommand,
		transcriptCommand,
		fetchCodeCommand,
		serveCommand,
		dumpConfigCommand,
		versionCommand,
	}
	app.Flags = slices.Concat(networkFlags, debug.Flags)

	migrate := app.Before
	app.Before = func(ctx *cli.Context) error {
		if err := migrate(ctx); err != nil {
			return err
		}
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printVersion(ctx *cli.Context) error {
	git, _ := version.VCS()
	w := ctx.App.Writer

	fmt.Fprintln(w, "Playground")
	fmt.Fprintln(w, "Version:", version.WithMeta)
	if git.Commit != "" {
		fmt.Fprintln(w, "Git Commit:", git.Commit)
	}
	if git.Date != "" {
		fmt.Fprintln(w, "Git Commit Date:", git.Date)
	}
	fmt.Fprintln(w, "Architecture:", runtime.GOARCH)
	fmt.Fprintln(w, "Go Version:", runtime.Version())
	fmt.Fprintln(w, "Operating System:", runtime.GOOS)
	fmt.Fprintln(w, "Client:", version.ClientName(clientIdentifier))
	return nil
}
