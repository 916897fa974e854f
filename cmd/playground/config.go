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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/kkrt-labs/kakarot-playground/backend/evm"
	"github.com/kkrt-labs/kakarot-playground/backend/kakarot"
	"github.com/kkrt-labs/kakarot-playground/params"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

const (
	defaultHTTPAddr = "localhost"
	defaultHTTPPort = 8550
)

var dumpConfigCommand = &cli.Command{
	Action:      dumpConfig,
	Name:        "dumpconfig",
	Usage:       "Export configuration values in a TOML format",
	ArgsUsage:   "<dumpfile (optional)>",
	Flags:       append(append([]cli.Flag{gasLimitFlag}, networkFlags...), httpFlags...),
	Description: `Export configuration values in TOML format (to stdout by default).`,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type kakarotConfig struct {
	Block string
}

type httpConfig struct {
	Addr        string
	Port        int
	CorsDomains []string `toml:",omitempty"`
	Metrics     bool
}

// playgroundConfig is the full set of settings. The Env section starts from
// the --network preset; the config file and flags override single fields.
type playgroundConfig struct {
	Env     params.Environment
	EVM     evm.Config
	Kakarot kakarotConfig
	HTTP    httpConfig
}

func loadConfig(file string, cfg *playgroundConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

func defaultConfig(network string) (playgroundConfig, error) {
	env, err := params.EnvironmentByName(network)
	if err != nil {
		return playgroundConfig{}, err
	}
	return playgroundConfig{
		Env: *env,
		EVM: evm.Config{
			GasLimit: evm.DefaultGasLimit,
			Origin:   evm.DefaultOrigin,
		},
		Kakarot: kakarotConfig{Block: kakarot.BlockLatest},
		HTTP: httpConfig{
			Addr: defaultHTTPAddr,
			Port: defaultHTTPPort,
		},
	}, nil
}

// loadBaseConfig loads the playgroundConfig based on the given command line
// parameters and config file.
func loadBaseConfig(ctx *cli.Context) (playgroundConfig, error) {
	cfg, err := defaultConfig(ctx.String(networkFlag.Name))
	if err != nil {
		return cfg, err
	}
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	applyFlags(ctx, &cfg)
	return cfg, nil
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(ctx *cli.Context, cfg *playgroundConfig) {
	if ctx.IsSet(starknetRPCFlag.Name) {
		cfg.Env.StarknetRPC = ctx.String(starknetRPCFlag.Name)
	}
	if ctx.IsSet(kakarotContractFlag.Name) {
		cfg.Env.KakarotContract = ctx.String(kakarotContractFlag.Name)
	}
	if ctx.IsSet(kakarotBlockFlag.Name) {
		cfg.Kakarot.Block = ctx.String(kakarotBlockFlag.Name)
	}
	if ctx.IsSet(l1RPCFlag.Name) {
		cfg.Env.L1RPC = ctx.String(l1RPCFlag.Name)
	}
	if ctx.IsSet(gasLimitFlag.Name) {
		cfg.EVM.GasLimit = ctx.Uint64(gasLimitFlag.Name)
	}
	if ctx.IsSet(httpAddrFlag.Name) {
		cfg.HTTP.Addr = ctx.String(httpAddrFlag.Name)
	}
	if ctx.IsSet(httpPortFlag.Name) {
		cfg.HTTP.Port = ctx.Int(httpPortFlag.Name)
	}
	if ctx.IsSet(httpCORSDomainFlag.Name) {
		cfg.HTTP.CorsDomains = splitAndTrim(ctx.String(httpCORSDomainFlag.Name))
	}
	if ctx.IsSet(metricsFlag.Name) {
		cfg.HTTP.Metrics = ctx.Bool(metricsFlag.Name)
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	var dump io.Writer = ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
