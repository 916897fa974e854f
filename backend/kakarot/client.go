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

// Package kakarot provides a client for the Kakarot contract over the Starknet
// JSON-RPC API.
// Package kakarot 通过 Starknet JSON-RPC API 访问 Kakarot 合约。
package kakarot

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
)

// Name identifies the Kakarot backend in outcomes, logs and metrics.
const Name = "kakarot"

// Entry points of the Kakarot contract.
const (
	entryExecute          = "execute"
	entryDeploy           = "deploy"
	entryExecuteAtAddress = "execute_at_address"
)

var (
	ErrNoContract = errors.New("kakarot contract address not configured")
	ErrNoSender   = errors.New("no transaction sender configured")
	ErrReverted   = errors.New("transaction reverted")
)

// BlockLatest and BlockPending are the block tags calls can be made against.
const (
	BlockLatest  = "latest"
	BlockPending = "pending"
)

// FunctionCall is a read-only contract invocation.
type FunctionCall struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
}

// Sender submits invoke transactions on behalf of an account, typically a
// connected wallet, and returns the transaction hash.
// Sender 代表某个账户（通常是已连接的钱包）提交 invoke 交易并返回交易哈希。
type Sender interface {
	Invoke(ctx context.Context, call FunctionCall) (txHash string, err error)
}

// Client defines typed wrappers for the Kakarot contract.
// Client 是 Kakarot 合约的类型化包装。
type Client struct {
	c        *rpc.Client
	contract string
	block    string
	sender   Sender
	log      log.Logger
}

// Dial connects a client to the Starknet node at rawurl.
func Dial(ctx context.Context, rawurl, contract string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	kc, err := NewClient(c, contract)
	if err != nil {
		c.Close()
		return nil, err
	}
	return kc, nil
}

// NewClient creates a client for the Kakarot contract at address contract
// using the given RPC client.
func NewClient(c *rpc.Client, contract string) (*Client, error) {
	if contract == "" {
		return nil, ErrNoContract
	}
	addr, err := encodeFelt(contract)
	if err != nil {
		return nil, fmt.Errorf("invalid contract address: %w", err)
	}
	return &Client{
		c:        c,
		contract: addr,
		block:    BlockLatest,
		log:      log.New("backend", Name, "contract", addr),
	}, nil
}

// WithSender returns a copy of the client that submits transactions through s.
func (kc *Client) WithSender(s Sender) *Client {
	cpy := *kc
	cpy.sender = s
	return &cpy
}

// WithBlock returns a copy of the client that calls against the given block
// tag.
func (kc *Client) WithBlock(tag string) *Client {
	cpy := *kc
	cpy.block = tag
	return &cpy
}

// Close closes the underlying RPC connection.
func (kc *Client) Close() {
	kc.c.Close()
}

// Contract returns the normalized contract address.
func (kc *Client) Contract() string { return kc.contract }

// Name implements dispatch.Backend.
func (kc *Client) Name() string { return Name }

// Call performs starknet_call of entry on the Kakarot contract.
func (kc *Client) Call(ctx context.Context, entry string, calldata []string) ([]string, error) {
	call := FunctionCall{
		ContractAddress:    kc.contract,
		EntryPointSelector: Selector(entry),
		Calldata:           calldata,
	}
	var result []string
	if err := kc.c.CallContext(ctx, &result, "starknet_call", call, kc.block); err != nil {
		return nil, err
	}
	return result, nil
}

// executeCalldata lays out execute(value: Uint256, bytecode: felt*, calldata: felt*).
func executeCalldata(code []byte, cc *callctx.CallContext) []string {
	var (
		value *uint256.Int
		data  []byte
	)
	if cc != nil {
		value, data = cc.Value, cc.Data
	}
	calldata := encodeUint256(value)
	calldata = append(calldata, encodeBytes(code)...)
	return append(calldata, encodeBytes(data)...)
}

// Execute runs code on Kakarot without a transaction and decodes the
// returned stack and memory. It implements dispatch.Backend.
func (kc *Client) Execute(ctx context.Context, code []byte, cc *callctx.CallContext) (normalize.Result, error) {
	felts, err := kc.Call(ctx, entryExecute, executeCalldata(code, cc))
	if err != nil {
		return nil, err
	}
	res, err := DecodeExecuteResponse(felts)
	if err != nil {
		return nil, err
	}
	kc.log.Debug("Executed bytecode", "code", len(code), "stack", len(res.Stack), "memory", len(res.Memory))
	return res, nil
}

// DecodeExecuteResponse decodes the felts of an execute call: a Uint256 stack
// array, bottom first, followed by a byte-per-felt memory array. Trailing
// felts belong to later return values and are ignored.
func DecodeExecuteResponse(felts []string) (*normalize.NativeResult, error) {
	r := &feltReader{felts: felts}
	n, err := r.length(2)
	if err != nil {
		return nil, fmt.Errorf("stack: %w", err)
	}
	res := &normalize.NativeResult{Stack: make([]hexutil.U256, n)}
	for i := 0; i < n; i++ {
		w, err := r.readUint256()
		if err != nil {
			return nil, fmt.Errorf("stack word %d: %w", i, err)
		}
		res.Stack[i] = hexutil.U256(*w)
	}
	m, err := r.length(1)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	res.Memory = make([]hexutil.Uint64, m)
	for i := 0; i < m; i++ {
		w, err := r.next()
		if err != nil {
			return nil, fmt.Errorf("memory word %d: %w", i, err)
		}
		if !w.IsUint64() {
			return nil, fmt.Errorf("%w: memory word %d exceeds 64 bits", normalize.ErrMalformedResult, i)
		}
		res.Memory[i] = hexutil.Uint64(w.Uint64())
	}
	return res, nil
}

// invoke submits a transaction calling entry on the Kakarot contract.
func (kc *Client) invoke(ctx context.Context, entry string, calldata []string) (string, error) {
	if kc.sender == nil {
		return "", ErrNoSender
	}
	hash, err := kc.sender.Invoke(ctx, FunctionCall{
		ContractAddress:    kc.contract,
		EntryPointSelector: Selector(entry),
		Calldata:           calldata,
	})
	if err != nil {
		return "", err
	}
	kc.log.Info("Submitted transaction", "entry", entry, "hash", hash)
	return hash, nil
}

// Deploy submits a transaction deploying code as an EVM contract on Kakarot.
func (kc *Client) Deploy(ctx context.Context, code []byte) (string, error) {
	return kc.invoke(ctx, entryDeploy, encodeBytes(code))
}

// ExecuteAtAddress submits a transaction calling the EVM contract at address
// with the value and call data of cc.
func (kc *Client) ExecuteAtAddress(ctx context.Context, address common.Address, cc *callctx.CallContext) (string, error) {
	var (
		value *uint256.Int
		data  []byte
	)
	if cc != nil {
		value, data = cc.Value, cc.Data
	}
	addr := new(uint256.Int).SetBytes(address.Bytes())
	calldata := append([]string{addr.Hex()}, encodeUint256(value)...)
	return kc.invoke(ctx, entryExecuteAtAddress, append(calldata, encodeBytes(data)...))
}

type functionInvocation struct {
	Result       []string `json:"result"`
	RevertReason string   `json:"revert_reason"`
}

type invokeTrace struct {
	Type              string              `json:"type"`
	ExecuteInvocation *functionInvocation `json:"execute_invocation"`
}

// Transcript fetches the execution record of transaction txHash and returns
// the result felts of its execute invocation. The last felt is reserved.
func (kc *Client) Transcript(ctx context.Context, txHash string) (*normalize.Transcript, error) {
	hash, err := encodeFelt(txHash)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction hash: %w", err)
	}
	var trace invokeTrace
	if err := kc.c.CallContext(ctx, &trace, "starknet_traceTransaction", hash); err != nil {
		return nil, err
	}
	inv := trace.ExecuteInvocation
	if inv == nil {
		return nil, fmt.Errorf("%w: transaction %s has no execute invocation", normalize.ErrMalformedTrace, hash)
	}
	if inv.RevertReason != "" {
		return nil, fmt.Errorf("%w: %s", ErrReverted, inv.RevertReason)
	}
	return &normalize.Transcript{Felts: inv.Result, Trailer: 1}, nil
}
