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

package kakarot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContract = "0x031ddf73d0285cc2f08bd4a2c93229f595f2f6e64b25846fc0957a2faa7ef7bb"

type codeError struct {
	code int
	msg  string
}

func (e *codeError) Error() string  { return e.msg }
func (e *codeError) ErrorCode() int { return e.code }

// starknetService is a stand-in Starknet node serving the starknet namespace.
type starknetService struct {
	mu       sync.Mutex
	calls    []FunctionCall
	blocks   []string
	response []string
	traces   map[string]*invokeTrace
	misses   int // traceTransaction calls answered with "not found" first
}

func (s *starknetService) Call(call FunctionCall, block string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	s.blocks = append(s.blocks, block)
	if call.EntryPointSelector != Selector(entryExecute) {
		return nil, &codeError{21, "Invalid message selector"}
	}
	return s.response, nil
}

func (s *starknetService) TraceTransaction(hash string) (*invokeTrace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.misses > 0 {
		s.misses--
		return nil, &codeError{errCodeTxnHashNotFound, "Transaction hash not found"}
	}
	tr, ok := s.traces[hash]
	if !ok {
		return nil, &codeError{errCodeTxnHashNotFound, "Transaction hash not found"}
	}
	return tr, nil
}

func newTestClient(t *testing.T, svc *starknetService) *Client {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("starknet", svc))
	t.Cleanup(server.Stop)

	kc, err := NewClient(rpc.DialInProc(server), testContract)
	require.NoError(t, err)
	t.Cleanup(kc.Close)
	return kc
}

// recordingSender plays the wallet, handing out fixed transaction hashes.
type recordingSender struct {
	calls []FunctionCall
	hash  string
	err   error
}

func (s *recordingSender) Invoke(_ context.Context, call FunctionCall) (string, error) {
	s.calls = append(s.calls, call)
	return s.hash, s.err
}

func TestSelector(t *testing.T) {
	assert.Equal(t, "0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e", Selector("transfer"))

	sel, err := normalize.ParseFelt(Selector(entryExecute))
	require.NoError(t, err)
	assert.Less(t, sel.BitLen(), 251)
}

func TestEncodeUint256(t *testing.T) {
	v := new(uint256.Int).Lsh(uint256.NewInt(3), 128)
	v.AddUint64(v, 7)
	assert.Equal(t, []string{"0x7", "0x3"}, encodeUint256(v))
	assert.Equal(t, []string{"0x0", "0x0"}, encodeUint256(nil))
}

func TestNewClientRejectsBadContract(t *testing.T) {
	_, err := NewClient(nil, "")
	assert.ErrorIs(t, err, ErrNoContract)
	_, err = NewClient(nil, "0xzz")
	assert.Error(t, err)
	_, err = NewClient(nil, "0xf"+strings.Repeat("0", 63))
	assert.ErrorIs(t, err, errFeltRange)
}

func TestClientExecute(t *testing.T) {
	svc := &starknetService{
		// stack [1, 2^128+0xab] bottom first, three memory bytes, one unrelated felt
		response: []string{"0x2", "0x1", "0x0", "0xab", "0x1", "0x3", "0x0", "0xa", "0xff", "0x99"},
	}
	kc := newTestClient(t, svc)

	cc, err := callctx.Build("1", callctx.Wei, "0xaa")
	require.NoError(t, err)
	res, err := kc.Execute(context.Background(), []byte{0x60, 0x01}, cc)
	require.NoError(t, err)

	s, err := res.Normalize()
	require.NoError(t, err)
	top := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	top.AddUint64(top, 0xab)
	assert.Equal(t, []string{top.Hex()[2:], "1"}, s.StackHex())
	assert.Equal(t, "000aff", s.MemoryHex())

	require.Len(t, svc.calls, 1)
	call := svc.calls[0]
	assert.Equal(t, kc.Contract(), call.ContractAddress)
	assert.Equal(t, Selector("execute"), call.EntryPointSelector)
	assert.Equal(t, []string{"0x1", "0x0", "0x2", "0x60", "0x1", "0x1", "0xaa"}, call.Calldata)
	assert.Equal(t, BlockLatest, svc.blocks[0])
}

func TestClientExecuteBlockTag(t *testing.T) {
	svc := &starknetService{response: []string{"0x0", "0x0"}}
	kc := newTestClient(t, svc).WithBlock(BlockPending)
	_, err := kc.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, BlockPending, svc.blocks[0])
}

func TestDecodeExecuteResponseMalformed(t *testing.T) {
	tests := [][]string{
		{},
		{"0x2", "0x1", "0x0"},
		{"0x1", "0x1", "0x0", "0x5"},
		{"0x1", "0x100000000000000000000000000000000", "0x0", "0x0"},
		{"0x0", "0x1", "zz"},
		{"0xffffffffffffffffffff"},
	}
	for i, felts := range tests {
		_, err := DecodeExecuteResponse(felts)
		if !errors.Is(err, normalize.ErrMalformedResult) {
			t.Errorf("test %d: have %v, want %v", i, err, normalize.ErrMalformedResult)
		}
	}
}

func TestClientExecuteRPCError(t *testing.T) {
	kc := newTestClient(t, &starknetService{})
	_, err := kc.Call(context.Background(), "nope", nil)
	var rpcErr rpc.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 21, rpcErr.ErrorCode())
}

func TestClientDeployAndExecuteAtAddress(t *testing.T) {
	kc := newTestClient(t, &starknetService{})
	_, err := kc.Deploy(context.Background(), []byte{0x00})
	assert.ErrorIs(t, err, ErrNoSender)

	sender := &recordingSender{hash: "0x123"}
	kc = kc.WithSender(sender)
	hash, err := kc.Deploy(context.Background(), []byte{0x60, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "0x123", hash)

	cc, err := callctx.Build("2", callctx.Wei, "0x01")
	require.NoError(t, err)
	_, err = kc.ExecuteAtAddress(context.Background(), common.HexToAddress("0x00000000000000000000000000000000000000ff"), cc)
	require.NoError(t, err)

	require.Len(t, sender.calls, 2)
	assert.Equal(t, Selector("deploy"), sender.calls[0].EntryPointSelector)
	assert.Equal(t, []string{"0x2", "0x60", "0x0"}, sender.calls[0].Calldata)
	assert.Equal(t, Selector("execute_at_address"), sender.calls[1].EntryPointSelector)
	assert.Equal(t, []string{"0xff", "0x2", "0x0", "0x1", "0x1"}, sender.calls[1].Calldata)
}

func TestClientTranscript(t *testing.T) {
	svc := &starknetService{traces: map[string]*invokeTrace{
		"0xabc": {Type: "INVOKE", ExecuteInvocation: &functionInvocation{Result: []string{"0x1", "0x2a", "0x11", "0x0"}}},
		"0xdef": {Type: "INVOKE", ExecuteInvocation: &functionInvocation{RevertReason: "out of resources"}},
		"0x111": {Type: "INVOKE"},
	}}
	kc := newTestClient(t, svc)

	tr, err := kc.Transcript(context.Background(), "0x0abc")
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Trailer)
	s, err := tr.Normalize()
	require.NoError(t, err)
	assert.Equal(t, []string{"2a"}, s.StackHex())
	assert.Equal(t, []byte{0x11}, s.Memory)

	_, err = kc.Transcript(context.Background(), "0xdef")
	assert.ErrorIs(t, err, ErrReverted)
	_, err = kc.Transcript(context.Background(), "0x111")
	assert.ErrorIs(t, err, normalize.ErrMalformedTrace)
}

func TestTranscriptBackend(t *testing.T) {
	svc := &starknetService{
		misses: 2,
		traces: map[string]*invokeTrace{
			"0x77": {Type: "INVOKE", ExecuteInvocation: &functionInvocation{Result: []string{"0x0", "0xff", "0x0"}}},
		},
	}
	sender := &recordingSender{hash: "0x77"}
	tb := &TranscriptBackend{Client: newTestClient(t, svc).WithSender(sender), PollInterval: time.Millisecond}

	res, err := tb.Execute(context.Background(), []byte{0x00}, nil)
	require.NoError(t, err)
	s, err := res.Normalize()
	require.NoError(t, err)
	assert.Empty(t, s.Stack)
	assert.Equal(t, []byte{0xff}, s.Memory)
	assert.Equal(t, 0, svc.misses)
	assert.Equal(t, Selector("execute"), sender.calls[0].EntryPointSelector)
}

func TestTranscriptBackendCancelled(t *testing.T) {
	svc := &starknetService{traces: map[string]*invokeTrace{}}
	tb := &TranscriptBackend{Client: newTestClient(t, svc).WithSender(&recordingSender{hash: "0x1"}), PollInterval: time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tb.Execute(ctx, nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Whatever the transport makes of a dead context, the caller sees the
// cancellation.
func TestWaitTranscriptCancelled(t *testing.T) {
	svc := &starknetService{traces: map[string]*invokeTrace{}}
	tb := &TranscriptBackend{Client: newTestClient(t, svc), PollInterval: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 10; i++ {
		_, err := tb.WaitTranscript(ctx, "0x1")
		require.ErrorIs(t, err, context.Canceled)
	}
}
