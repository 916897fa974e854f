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

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcBackend adapts a function to the Backend interface.
type funcBackend struct {
	name string
	fn   func(ctx context.Context, code []byte, cc *callctx.CallContext) (normalize.Result, error)
}

func (b *funcBackend) Name() string { return b.name }

func (b *funcBackend) Execute(ctx context.Context, code []byte, cc *callctx.CallContext) (normalize.Result, error) {
	return b.fn(ctx, code, cc)
}

func staticBackend(name string, res normalize.Result, err error) *funcBackend {
	return &funcBackend{name: name, fn: func(context.Context, []byte, *callctx.CallContext) (normalize.Result, error) {
		return res, err
	}}
}

func nativeStack(words ...uint64) *normalize.NativeResult {
	r := new(normalize.NativeResult)
	for _, w := range words {
		r.Stack = append(r.Stack, hexutil.U256(*uint256.NewInt(w)))
	}
	return r
}

func TestRunBothSides(t *testing.T) {
	d := New(
		staticBackend("evm", nativeStack(1, 2), nil),
		staticBackend("kakarot", &normalize.Transcript{Felts: []string{"2", "ab", "cd", "11", "22"}}, nil),
	)
	defer d.Close()

	out, err := d.Run(context.Background(), []byte{0x00}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), out.Run)
	require.False(t, out.EVM.Failed())
	require.False(t, out.Kakarot.Failed())
	assert.Equal(t, []string{"2", "1"}, out.EVM.State.StackHex())
	assert.Equal(t, []string{"ab", "cd"}, out.Kakarot.State.StackHex())
	assert.Equal(t, out, d.Latest())
}

func TestRunPartialFailure(t *testing.T) {
	cause := errors.New("connection refused")
	d := New(
		staticBackend("evm", nativeStack(7), nil),
		staticBackend("kakarot", nil, cause),
	)
	defer d.Close()

	out, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, out.EVM.State)
	assert.Equal(t, []string{"7"}, out.EVM.State.StackHex())

	assert.Nil(t, out.Kakarot.State)
	assert.ErrorIs(t, out.Kakarot.Err, ErrExecutionFailed)
	assert.ErrorIs(t, out.Kakarot.Err, cause)
	var berr *BackendError
	require.True(t, errors.As(out.Kakarot.Err, &berr))
	assert.Equal(t, "kakarot", berr.Backend)
}

func TestRunMalformedTraceIsBackendError(t *testing.T) {
	d := New(
		staticBackend("evm", nativeStack(), nil),
		staticBackend("kakarot", &normalize.Transcript{Felts: []string{"5", "ab"}}, nil),
	)
	defer d.Close()

	out, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.False(t, out.EVM.Failed())
	assert.ErrorIs(t, out.Kakarot.Err, ErrExecutionFailed)
	assert.ErrorIs(t, out.Kakarot.Err, normalize.ErrMalformedTrace)
}

// A backend answering with neither a result nor an error fails its side only.
func TestRunEmptyResult(t *testing.T) {
	d := New(
		staticBackend("evm", nativeStack(1), nil),
		staticBackend("kakarot", nil, nil),
	)
	defer d.Close()

	out, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.False(t, out.EVM.Failed())
	assert.Nil(t, out.Kakarot.State)
	assert.ErrorIs(t, out.Kakarot.Err, ErrExecutionFailed)
	assert.ErrorIs(t, out.Kakarot.Err, normalize.ErrMalformedResult)
}

// Both backend calls must be in flight at the same time.
func TestRunConcurrent(t *testing.T) {
	var (
		wg      sync.WaitGroup
		started = make(chan struct{})
	)
	wg.Add(2)
	go func() { wg.Wait(); close(started) }()

	barrier := func(name string) *funcBackend {
		return &funcBackend{name: name, fn: func(ctx context.Context, _ []byte, _ *callctx.CallContext) (normalize.Result, error) {
			wg.Done()
			select {
			case <-started:
				return nativeStack(), nil
			case <-time.After(5 * time.Second):
				return nil, errors.New("other backend never started")
			}
		}}
	}
	d := New(barrier("evm"), barrier("kakarot"))
	defer d.Close()

	out, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, out.EVM.Err)
	assert.NoError(t, out.Kakarot.Err)
}

func TestRunSharesCallContextCopies(t *testing.T) {
	cc, err := callctx.Build("5", callctx.Wei, "0xaabb")
	require.NoError(t, err)

	mutate := &funcBackend{name: "evm", fn: func(_ context.Context, _ []byte, cc *callctx.CallContext) (normalize.Result, error) {
		cc.Value.SetUint64(0)
		cc.Data[0] = 0
		return nativeStack(), nil
	}}
	var seen *callctx.CallContext
	observe := &funcBackend{name: "kakarot", fn: func(_ context.Context, _ []byte, cc *callctx.CallContext) (normalize.Result, error) {
		seen = cc
		return nativeStack(), nil
	}}
	d := New(mutate, observe)
	defer d.Close()

	_, err = d.Run(context.Background(), nil, cc)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cc.Value.Uint64())
	assert.Equal(t, []byte{0xaa, 0xbb}, cc.Data)
	assert.Equal(t, []byte{0xaa, 0xbb}, seen.Data)
}

// Starting run B before run A's responses arrive drops A.
func TestRunStale(t *testing.T) {
	var (
		release  = make(chan struct{})
		inFlight = make(chan struct{}, 2)
	)
	slow := func(name string) *funcBackend {
		return &funcBackend{name: name, fn: func(ctx context.Context, code []byte, _ *callctx.CallContext) (normalize.Result, error) {
			if len(code) > 0 && code[0] == 0xa {
				inFlight <- struct{}{}
				<-release
				return nativeStack(0xa), nil
			}
			return nativeStack(0xb), nil
		}}
	}
	d := New(slow("evm"), slow("kakarot"))
	defer d.Close()

	outcomes := make(chan *Outcome, 4)
	sub := d.SubscribeOutcomes(outcomes)
	defer sub.Unsubscribe()

	errA := make(chan error, 1)
	go func() {
		_, err := d.Run(context.Background(), []byte{0xa}, nil)
		errA <- err
	}()
	<-inFlight
	<-inFlight

	outB, err := d.Run(context.Background(), []byte{0xb}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, outB.EVM.State.StackHex())

	close(release)
	assert.ErrorIs(t, <-errA, ErrStaleRun)

	select {
	case out := <-outcomes:
		assert.Equal(t, outB.Run, out.Run)
	case <-time.After(time.Second):
		t.Fatal("no outcome published")
	}
	select {
	case out := <-outcomes:
		t.Fatalf("stale outcome published: run %d", out.Run)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, outB, d.Latest())
}

// A newer run cancels the context of the one in flight.
func TestRunCancelsPrevious(t *testing.T) {
	cancelled := make(chan struct{})
	entered := make(chan struct{}, 2)
	backend := func(name string) *funcBackend {
		return &funcBackend{name: name, fn: func(ctx context.Context, code []byte, _ *callctx.CallContext) (normalize.Result, error) {
			if len(code) == 0 {
				return nativeStack(), nil
			}
			entered <- struct{}{}
			<-ctx.Done()
			if name == "evm" {
				close(cancelled)
			}
			return nil, ctx.Err()
		}}
	}
	d := New(backend("evm"), backend("kakarot"))
	defer d.Close()

	errA := make(chan error, 1)
	go func() {
		_, err := d.Run(context.Background(), []byte{1}, nil)
		errA <- err
	}()
	<-entered
	<-entered

	_, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	<-cancelled
	assert.ErrorIs(t, <-errA, ErrStaleRun)
}

func TestOutcomeJSON(t *testing.T) {
	d := New(
		staticBackend("evm", nativeStack(0xff), nil),
		staticBackend("kakarot", nil, errors.New("boom")),
	)
	defer d.Close()
	out, err := d.Run(context.Background(), nil, nil)
	require.NoError(t, err)

	blob, err := json.Marshal(out)
	require.NoError(t, err)
	var dec struct {
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
	require.NoError(t, json.Unmarshal(blob, &dec))
	assert.Equal(t, uint64(1), dec.Run)
	assert.Equal(t, []string{"ff"}, dec.EVM.State.Stack)
	assert.Contains(t, dec.Kakarot.Error, "boom")
}
