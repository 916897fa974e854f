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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/backend/evm"
	"github.com/kkrt-labs/kakarot-playground/core/dispatch"
	"github.com/kkrt-labs/kakarot-playground/core/types"
	"github.com/kkrt-labs/kakarot-playground/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runApp runs the CLI with args and returns what it printed.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	defer func() {
		app.Writer = os.Stdout
		app.ErrWriter = os.Stderr
	}()
	err := app.Run(append([]string{"playground", "--verbosity", "0"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAsmCommand(t *testing.T) {
	src := writeFile(t, "prog.asm", "PUSH1 10\nPUSH1 00\nMSTORE ;; store\n")
	out, err := runApp(t, "asm", src)
	require.NoError(t, err)
	assert.Equal(t, "0x6010600052\n", out)

	bad := writeFile(t, "bad.asm", "PUSH1 10\nFOO\nBAR\n")
	_, err = runApp(t, "asm", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "line 3")
}

func TestDisasmCommand(t *testing.T) {
	out, err := runApp(t, "disasm", "0x6010600052")
	require.NoError(t, err)
	assert.Equal(t, "00000: PUSH1 0x10\n00002: PUSH1 0x00\n00004: MSTORE\n", out)

	out, err = runApp(t, "disasm", "--render", "600c0c")
	require.NoError(t, err)
	assert.Equal(t, "PUSH1 0c\nINVALID ;; 0x0c\n", out)
}

func TestContextCommand(t *testing.T) {
	out, err := runApp(t, "context", "--value", "2", "--unit", "gwei", "--calldata", "0xdead")
	require.NoError(t, err)
	assert.Contains(t, out, "2000000000 wei (0x77359400)")
	assert.Contains(t, out, "0xdead (2 bytes)")

	_, err = runApp(t, "context", "--value", "1.5")
	assert.Error(t, err)
}

func TestRunCommandWithoutKakarot(t *testing.T) {
	out, err := runApp(t, "run", "--network", "devnet", "--l1.rpc", "", "--json", "--code", "6001600201")
	require.NoError(t, err)

	var outcome struct {
		Run uint64 `json:"run"`
		EVM struct {
			State struct {
				Stack []string `json:"stack"`
			} `json:"state"`
		} `json:"evm"`
		Kakarot struct {
			Error string `json:"error"`
		} `json:"kakarot"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, []string{"3"}, outcome.EVM.State.Stack)
	assert.Contains(t, outcome.Kakarot.Error, "kakarot backend not configured")
}

func TestRunCommandRejectsTwoPrograms(t *testing.T) {
	src := writeFile(t, "prog.asm", "STOP")
	_, err := runApp(t, "run", "--code", "00", "--source", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't be used at the same time")

	_, err = runApp(t, "run")
	assert.ErrorIs(t, err, errNoProgram)
}

func TestDumpConfigRoundTrip(t *testing.T) {
	out, err := runApp(t, "dumpconfig", "--network", "testnet", "--gaslimit", "1000", "--http.corsdomain", "a.example, b.example")
	require.NoError(t, err)

	var cfg playgroundConfig
	require.NoError(t, loadConfig(writeFile(t, "config.toml", out), &cfg))
	assert.Equal(t, uint64(1000), cfg.EVM.GasLimit)
	assert.Equal(t, evm.DefaultOrigin, cfg.EVM.Origin)
	assert.Equal(t, params.TestnetEnvironment.KakarotContract, cfg.Env.KakarotContract)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.HTTP.CorsDomains)
}

func TestLoadConfigUnknownField(t *testing.T) {
	file := writeFile(t, "config.toml", "[EVM]\nGasCap = 1\n")
	var cfg playgroundConfig
	err := loadConfig(file, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GasCap")
}

func TestConfigFileOverridesPreset(t *testing.T) {
	file := writeFile(t, "config.toml", "[Env]\nStarknetRPC = \"http://example.invalid/rpc\"\n")
	out, err := runApp(t, "dumpconfig", "--config", file, "--l1.rpc", "http://l1.invalid")
	require.NoError(t, err)
	assert.Contains(t, out, `StarknetRPC = "http://example.invalid/rpc"`)
	assert.Contains(t, out, `L1RPC = "http://l1.invalid"`)
}

func TestPrintOutcome(t *testing.T) {
	pc, total, current := uint64(5), uint64(100), uint64(91)
	state := types.NewExecutionState(types.StateFields{
		Stack:      []uint256.Int{*uint256.NewInt(3)},
		Memory:     bytes.Repeat([]byte{0xab}, 33),
		Storage:    map[uint256.Int]uint256.Int{*uint256.NewInt(1): *uint256.NewInt(2)},
		PC:         &pc,
		TotalGas:   &total,
		CurrentGas: &current,
	})
	out := &dispatch.Outcome{
		Run: 7,
		EVM: dispatch.Side{State: state, Duration: time.Millisecond},
		Kakarot: dispatch.Side{
			Err: &dispatch.BackendError{Backend: "kakarot", Err: os.ErrDeadlineExceeded},
		},
	}
	var buf bytes.Buffer
	printOutcome(&buf, out)

	table := buf.String()
	assert.Contains(t, table, "run 7")
	assert.Contains(t, table, "0020: ab")
	assert.Contains(t, table, "0x1: 0x2")
	assert.Contains(t, table, "failed:")
}
