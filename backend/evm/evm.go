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

// Package evm runs playground code on the go-ethereum interpreter.
// Package evm 在 go-ethereum 解释器上运行 playground 代码。
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethvm "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/core/vm/runtime"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
)

const (
	// Name identifies this backend in outcomes, logs and metrics.
	Name = "evm"

	// DefaultGasLimit bounds a single run.
	DefaultGasLimit = 30_000_000
)

var (
	// DefaultOrigin is the externally owned account the call originates from.
	DefaultOrigin = common.HexToAddress("0x00000000000000000000000000000000000c0de5")

	// contractAddress is the account the code is installed at.
	contractAddress = common.BytesToAddress([]byte("contract"))
)

// Config holds the interpreter settings of the backend.
type Config struct {
	GasLimit uint64
	Origin   common.Address
}

// Backend executes code on an in-memory state with the go-ethereum
// interpreter. It is safe for concurrent use; every run gets a fresh state.
// Backend 在内存状态上用 go-ethereum 解释器执行代码，每次运行都使用新的状态。
type Backend struct {
	cfg Config
	log log.Logger
}

// New creates a backend, filling unset fields of cfg with defaults.
func New(cfg Config) *Backend {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	if cfg.Origin == (common.Address{}) {
		cfg.Origin = DefaultOrigin
	}
	return &Backend{cfg: cfg, log: log.New("backend", Name)}
}

// Name implements dispatch.Backend.
func (b *Backend) Name() string { return Name }

type execResult struct {
	ret []byte
	err error
}

// runtimeConfig returns an interpreter configuration with every fork up to
// Cancun active at genesis.
func (b *Backend) runtimeConfig(statedb *state.StateDB, value *uint256.Int, tracer *tracing.Hooks) *runtime.Config {
	var (
		shanghaiTime = uint64(0)
		cancunTime   = uint64(0)
	)
	return &runtime.Config{
		ChainConfig: &params.ChainConfig{
			ChainID:                 big.NewInt(1),
			HomesteadBlock:          new(big.Int),
			DAOForkBlock:            new(big.Int),
			EIP150Block:             new(big.Int),
			EIP155Block:             new(big.Int),
			EIP158Block:             new(big.Int),
			ByzantiumBlock:          new(big.Int),
			ConstantinopleBlock:     new(big.Int),
			PetersburgBlock:         new(big.Int),
			IstanbulBlock:           new(big.Int),
			MuirGlacierBlock:        new(big.Int),
			BerlinBlock:             new(big.Int),
			LondonBlock:             new(big.Int),
			TerminalTotalDifficulty: big.NewInt(0),
			ShanghaiTime:            &shanghaiTime,
			CancunTime:              &cancunTime,
		},
		Difficulty:  new(big.Int),
		Origin:      b.cfg.Origin,
		BlockNumber: new(big.Int),
		GasLimit:    b.cfg.GasLimit,
		GasPrice:    new(big.Int),
		Value:       value.ToBig(),
		EVMConfig:   gethvm.Config{Tracer: tracer},
		BaseFee:     big.NewInt(params.InitialBaseFee),
		BlobBaseFee: big.NewInt(params.BlobTxMinBlobGasprice),
		Random:      new(common.Hash),
		State:       statedb,
		GetHashFn: func(n uint64) common.Hash {
			return common.BytesToHash(crypto.Keccak256([]byte(new(big.Int).SetUint64(n).String())))
		},
	}
}

// Execute runs code with the value and call data of cc. The origin account is
// funded with the call value first so the transfer always succeeds. A revert
// is a regular result carrying the revert data; any other interpreter error
// fails the run. Cancelling ctx aborts the interpreter at its next jump.
func (b *Backend) Execute(ctx context.Context, code []byte, cc *callctx.CallContext) (normalize.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value := new(uint256.Int)
	var input []byte
	if cc != nil {
		if cc.Value != nil {
			value.Set(cc.Value)
		}
		input = cc.Data
	}
	statedb, err := state.New(gethtypes.EmptyRootHash, state.NewDatabaseForTesting())
	if err != nil {
		return nil, err
	}
	statedb.AddBalance(b.cfg.Origin, value, tracing.BalanceChangeUnspecified)

	var (
		rec   = newRecorder(contractAddress)
		cfg   = b.runtimeConfig(statedb, value, rec.hooks())
		vmenv = runtime.NewEnv(cfg)
		rules = cfg.ChainConfig.Rules(vmenv.Context.BlockNumber, vmenv.Context.Random != nil, vmenv.Context.Time)
	)
	statedb.Prepare(rules, cfg.Origin, cfg.Coinbase, &contractAddress, gethvm.ActivePrecompiles(rules), nil)
	statedb.CreateAccount(contractAddress)
	statedb.SetCode(contractAddress, code)

	done := make(chan execResult, 1)
	go func() {
		ret, _, err := vmenv.Call(cfg.Origin, contractAddress, input, cfg.GasLimit, value)
		done <- execResult{ret, err}
	}()

	var res execResult
	select {
	case <-ctx.Done():
		vmenv.Cancel()
		<-done
		return nil, ctx.Err()
	case res = <-done:
	}
	reverted := errors.Is(res.err, gethvm.ErrExecutionReverted)
	if res.err != nil && !reverted {
		b.log.Debug("Execution failed", "err", res.err, "pc", rec.pc)
		return nil, fmt.Errorf("%w at pc %d", res.err, rec.pc)
	}
	// Writes of a reverted call never reach the state.
	var storage func(common.Hash) common.Hash
	if !reverted {
		storage = func(slot common.Hash) common.Hash {
			return statedb.GetState(contractAddress, slot)
		}
	}
	out := rec.result(b.cfg.GasLimit, storage)
	out.ReturnValue = hexutil.Bytes(common.CopyBytes(res.ret))
	if out.ReturnValue == nil {
		out.ReturnValue = hexutil.Bytes{}
	}
	b.log.Debug("Execution finished", "pc", rec.pc, "stack", len(out.Stack), "memory", len(out.Memory), "storage", len(out.Storage), "reverted", reverted)
	return out, nil
}
