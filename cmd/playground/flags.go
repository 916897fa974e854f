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
	"strings"

	"github.com/kkrt-labs/kakarot-playground/backend/evm"
	"github.com/kkrt-labs/kakarot-playground/backend/kakarot"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/internal/flags"
	"github.com/kkrt-labs/kakarot-playground/params"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &flags.PathFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}
	networkFlag = &cli.StringFlag{
		Name:     "network",
		Usage:    "Network preset to connect to (" + strings.Join(params.NetworkNames(), ", ") + ")",
		Value:    params.DefaultNetwork,
		EnvVars:  []string{"PLAYGROUND_NETWORK"},
		Category: flags.NetworkCategory,
	}
	starknetRPCFlag = &cli.StringFlag{
		Name:     "starknet.rpc",
		Usage:    "Starknet JSON-RPC endpoint, overrides the network preset",
		Category: flags.NetworkCategory,
	}
	kakarotContractFlag = &cli.StringFlag{
		Name:     "kakarot.contract",
		Usage:    "Starknet address of the Kakarot contract, overrides the network preset",
		Category: flags.NetworkCategory,
	}
	kakarotBlockFlag = &cli.StringFlag{
		Name:     "kakarot.block",
		Usage:    "Block tag Kakarot calls are made against (latest, pending)",
		Value:    kakarot.BlockLatest,
		Category: flags.NetworkCategory,
	}
	l1RPCFlag = &cli.StringFlag{
		Name:     "l1.rpc",
		Usage:    "Ethereum JSON-RPC endpoint used to load contract code, overrides the network preset",
		Category: flags.NetworkCategory,
	}

	gasLimitFlag = &cli.Uint64Flag{
		Name:     "gaslimit",
		Usage:    "Gas limit of the reference EVM run",
		Value:    evm.DefaultGasLimit,
		Category: flags.ExecutionCategory,
	}
	valueFlag = &cli.StringFlag{
		Name:     "value",
		Usage:    "Call value as a non-negative decimal integer",
		Category: flags.ExecutionCategory,
	}
	unitFlag = &flags.UnitFlag{
		Name:     "unit",
		Usage:    "Unit of the call value (Wei, Gwei, Finney, Ether)",
		Value:    callctx.Wei,
		Category: flags.ExecutionCategory,
	}
	callDataFlag = &cli.StringFlag{
		Name:     "calldata",
		Usage:    "Call data as hex, with or without 0x prefix",
		Category: flags.ExecutionCategory,
	}
	codeFlag = &cli.StringFlag{
		Name:     "code",
		Usage:    "Bytecode to run as hex",
		Category: flags.ExecutionCategory,
	}
	sourceFlag = &flags.PathFlag{
		Name:     "source",
		Usage:    "File holding mnemonic source to assemble and run",
		Category: flags.ExecutionCategory,
	}
	jsonFlag = &cli.BoolFlag{
		Name:     "json",
		Usage:    "Print results as JSON",
		Category: flags.ExecutionCategory,
	}
	renderFlag = &cli.BoolFlag{
		Name:     "render",
		Usage:    "Print mnemonic source instead of an annotated listing",
		Category: flags.ExecutionCategory,
	}

	httpAddrFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "HTTP-RPC server listening interface",
		Value:    defaultHTTPAddr,
		Category: flags.APICategory,
	}
	httpPortFlag = &cli.IntFlag{
		Name:     "http.port",
		Usage:    "HTTP-RPC server listening port",
		Value:    defaultHTTPPort,
		Category: flags.APICategory,
	}
	httpCORSDomainFlag = &cli.StringFlag{
		Name:     "http.corsdomain",
		Usage:    "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
		Category: flags.APICategory,
	}
	metricsFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and publish them under /debug/metrics",
		Category: flags.MetricsCategory,
	}
)

var (
	// networkFlags are accepted by every command.
	networkFlags = []cli.Flag{
		configFileFlag,
		networkFlag,
		starknetRPCFlag,
		kakarotContractFlag,
		kakarotBlockFlag,
		l1RPCFlag,
	}
	contextFlags = []cli.Flag{
		valueFlag,
		unitFlag,
		callDataFlag,
	}
	httpFlags = []cli.Flag{
		httpAddrFlag,
		httpPortFlag,
		httpCORSDomainFlag,
		metricsFlag,
	}
)

// splitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func splitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}
