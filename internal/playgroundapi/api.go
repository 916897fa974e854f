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
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/kkrt-labs/kakarot-playground/core/asm"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/dispatch"
	"github.com/kkrt-labs/kakarot-playground/core/types"
	"github.com/kkrt-labs/kakarot-playground/params"
)

// disasmCacheSize is the number of disassembly listings kept by code hash.
const disasmCacheSize = 256

var errCodeOrSource = errors.New("exactly one of code and source must be set")

// InstructionResult is the JSON form of a disassembled instruction.
type InstructionResult struct {
	PC      hexutil.Uint64 `json:"pc"`
	Op      hexutil.Uint64 `json:"op"`
	Name    string         `json:"name"`
	Operand hexutil.Bytes  `json:"operand,omitempty"`
	Gas     hexutil.Uint64 `json:"gas"`
	Text    string         `json:"text"`
}

// DisassemblyResult is returned by Disassemble. A truncated trailing operand
// is reported in Error next to the instructions decoded before it.
type DisassemblyResult struct {
	Instructions []InstructionResult `json:"instructions"`
	Source       string              `json:"source"`
	Error        string              `json:"error,omitempty"`
}

// CallContextResult is the JSON form of a validated call context.
type CallContextResult struct {
	Value    *hexutil.Big  `json:"value"`
	CallData hexutil.Bytes `json:"callData"`
}

// RunArgs are the editor contents of one run. Exactly one of Code (bytecode
// hex) and Source (mnemonic) is set.
type RunArgs struct {
	Code     *string `json:"code"`
	Source   *string `json:"source"`
	Value    string  `json:"value"`
	Unit     string  `json:"unit"`
	CallData string  `json:"callData"`
}

// PlaygroundAPI provides the editor conversions and the dual run.
// PlaygroundAPI 提供编辑器的转换功能以及双后端运行。
type PlaygroundAPI struct {
	b     Backend
	cache *lru.Cache[common.Hash, *DisassemblyResult]
	log   log.Logger
}

// NewPlaygroundAPI creates a new playground API.
func NewPlaygroundAPI(b Backend) *PlaygroundAPI {
	return &PlaygroundAPI{
		b:     b,
		cache: lru.NewCache[common.Hash, *DisassemblyResult](disasmCacheSize),
		log:   log.New("module", "api"),
	}
}

// Assemble converts mnemonic source into bytecode.
func (api *PlaygroundAPI) Assemble(source string) (hexutil.Bytes, error) {
	code, err := asm.Assemble(source, api.b.Table())
	if err != nil {
		return nil, wrapError(err)
	}
	return code, nil
}

// Disassemble decodes bytecode, as typed into the editor, into instructions
// and their mnemonic source.
func (api *PlaygroundAPI) Disassemble(code string) (*DisassemblyResult, error) {
	bytecode, err := asm.ParseBytecode(code)
	if err != nil {
		return nil, wrapError(err)
	}
	return api.disassemble(bytecode), nil
}

func (api *PlaygroundAPI) disassemble(code []byte) *DisassemblyResult {
	hash := crypto.Keccak256Hash(code)
	if res, ok := api.cache.Get(hash); ok {
		return res
	}
	instrs, err := asm.Disassemble(code, api.b.Table())
	res := &DisassemblyResult{
		Instructions: make([]InstructionResult, len(instrs)),
		Source:       asm.Render(instrs),
	}
	for i, in := range instrs {
		res.Instructions[i] = InstructionResult{
			PC:      hexutil.Uint64(in.PC),
			Op:      hexutil.Uint64(in.Entry.Op),
			Name:    in.Entry.Name,
			Operand: in.Operand,
			Gas:     hexutil.Uint64(in.Entry.Gas),
			Text:    in.String(),
		}
	}
	if err != nil {
		res.Error = err.Error()
	}
	api.cache.Add(hash, res)
	return res
}

// Render converts bytecode into mnemonic source, for switching the editor
// from bytecode to mnemonic mode.
func (api *PlaygroundAPI) Render(code string) (string, error) {
	res, err := api.Disassemble(code)
	if err != nil {
		return "", err
	}
	if res.Error != "" {
		return "", &inputError{error: errors.New(res.Error)}
	}
	return res.Source, nil
}

// BuildContext validates and encodes a call value and call data.
func (api *PlaygroundAPI) BuildContext(value string, unit string, callData string) (*CallContextResult, error) {
	cc, err := buildContext(value, unit, callData)
	if err != nil {
		return nil, wrapError(err)
	}
	return &CallContextResult{Value: (*hexutil.Big)(cc.Value.ToBig()), CallData: cc.Data}, nil
}

func buildContext(value, unit, callData string) (*callctx.CallContext, error) {
	u, err := callctx.ParseUnit(unit)
	if err != nil {
		return nil, err
	}
	return callctx.Build(value, u, callData)
}

// Run validates the editor contents and executes them on both backends.
// Input errors are reported before anything is dispatched.
func (api *PlaygroundAPI) Run(ctx context.Context, args RunArgs) (*dispatch.Outcome, error) {
	var (
		code []byte
		err  error
	)
	switch {
	case args.Code != nil && args.Source == nil:
		code, err = asm.ParseBytecode(*args.Code)
	case args.Source != nil && args.Code == nil:
		code, err = asm.Assemble(*args.Source, api.b.Table())
	default:
		err = errCodeOrSource
	}
	if err == nil {
		var cc *callctx.CallContext
		if cc, err = buildContext(args.Value, args.Unit, args.CallData); err == nil {
			return api.dispatch(ctx, code, cc)
		}
	}
	api.log.Debug("Rejected run input", "err", err)
	if errors.Is(err, errCodeOrSource) {
		return nil, &inputError{error: err}
	}
	return nil, wrapError(err)
}

func (api *PlaygroundAPI) dispatch(ctx context.Context, code []byte, cc *callctx.CallContext) (*dispatch.Outcome, error) {
	out, err := api.b.Run(ctx, code, cc)
	if err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

// Transcript fetches and normalizes the execution record of a Kakarot
// transaction submitted by the user's wallet.
func (api *PlaygroundAPI) Transcript(ctx context.Context, txHash string) (*types.ExecutionState, error) {
	tr, err := api.b.Transcript(ctx, txHash)
	if err != nil {
		return nil, wrapError(err)
	}
	state, err := tr.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dispatch.ErrExecutionFailed, err)
	}
	return state, nil
}

// FetchCode loads the runtime code of an L1 contract.
func (api *PlaygroundAPI) FetchCode(ctx context.Context, address string) (hexutil.Bytes, error) {
	code, err := api.b.FetchCode(ctx, address)
	if err != nil {
		return nil, wrapError(err)
	}
	return code, nil
}

// Examples returns the programs preloaded in the editor, keyed by code type.
func (api *PlaygroundAPI) Examples() map[asm.CodeType][]string {
	out := make(map[asm.CodeType][]string, len(asm.Examples))
	for kind, codes := range asm.Examples {
		out[kind] = append([]string(nil), codes...)
	}
	return out
}

// Environment returns the network the playground is connected to.
func (api *PlaygroundAPI) Environment() *params.Environment {
	return api.b.Environment()
}

// Outcomes streams the outcome of every completed, non-stale run.
func (api *PlaygroundAPI) Outcomes(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return nil, rpc.ErrNotificationsUnsupported
	}
	var (
		rpcSub   = notifier.CreateSubscription()
		outcomes = make(chan *dispatch.Outcome, 16)
		sub      = api.b.SubscribeOutcomes(outcomes)
	)
	go func() {
		defer sub.Unsubscribe()

		for {
			select {
			case out := <-outcomes:
				notifier.Notify(rpcSub.ID, out)
			case <-sub.Err():
				return
			case <-rpcSub.Err():
				return
			}
		}
	}()
	return rpcSub, nil
}
