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
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
)

// Starknet JSON-RPC error codes meaning the trace is not there yet.
const (
	errCodeNoTraceAvailable = 10
	errCodeTxnHashNotFound  = 29
)

// DefaultPollInterval is how often TranscriptBackend asks for the trace of a
// submitted transaction.
const DefaultPollInterval = 2 * time.Second

// TranscriptBackend runs code as an invoke transaction and reads the result
// back from the transaction trace. Unlike Client.Execute the run is proved,
// at the cost of waiting for the transaction to be processed.
// TranscriptBackend 以 invoke 交易的方式运行代码，并从交易追踪中读回结果。
type TranscriptBackend struct {
	Client       *Client
	PollInterval time.Duration
}

// Name implements dispatch.Backend.
func (tb *TranscriptBackend) Name() string { return Name }

// Execute submits the execute transaction and waits for its transcript.
func (tb *TranscriptBackend) Execute(ctx context.Context, code []byte, cc *callctx.CallContext) (normalize.Result, error) {
	hash, err := tb.Client.invoke(ctx, entryExecute, executeCalldata(code, cc))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return tb.WaitTranscript(ctx, hash)
}

// WaitTranscript polls for the transcript of txHash until it is available or
// ctx is done.
func (tb *TranscriptBackend) WaitTranscript(ctx context.Context, txHash string) (*normalize.Transcript, error) {
	interval := tb.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tr, err := tb.Client.Transcript(ctx, txHash)
		if err == nil {
			return tr, nil
		}
		// A transport error caused by the deadline is reported as such.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !pending(err) {
			return nil, err
		}
		tb.Client.log.Trace("Transcript not available yet", "hash", txHash, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func pending(err error) bool {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	switch rpcErr.ErrorCode() {
	case errCodeNoTraceAvailable, errCodeTxnHashNotFound:
		return true
	}
	return false
}
