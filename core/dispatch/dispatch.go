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

// Package dispatch runs one program on the reference EVM and on Kakarot at the
// same time and pairs the normalized results.
// Package dispatch 同时在参考 EVM 和 Kakarot 上运行同一个程序，并将规范化后的结果配对。
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
	"github.com/kkrt-labs/kakarot-playground/core/types"
	"golang.org/x/sync/errgroup"
)

var (
	ErrExecutionFailed = errors.New("execution failed")
	ErrStaleRun        = errors.New("stale run")
)

var (
	runTimer     = metrics.NewRegisteredTimer("playground/dispatch/run", nil)
	staleCounter = metrics.NewRegisteredCounter("playground/dispatch/stale", nil)
	failedMeter  = metrics.NewRegisteredMeter("playground/dispatch/failed", nil)
)

// Backend executes bytecode under a call context and returns its raw result.
// Implementations must honour ctx cancellation.
type Backend interface {
	Name() string
	Execute(ctx context.Context, code []byte, cc *callctx.CallContext) (normalize.Result, error)
}

// BackendError marks one side of a run as failed. It matches
// ErrExecutionFailed as well as the underlying cause.
// BackendError 表示一次运行中某一侧失败。
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Backend, ErrExecutionFailed, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrExecutionFailed }

// Side is the result of one backend for one run. Exactly one of State and
// Err is set.
type Side struct {
	State    *types.ExecutionState
	Err      error
	Duration time.Duration
}

// Failed reports whether the backend call or its normalization failed.
func (s Side) Failed() bool { return s.Err != nil }

type sideJSON struct {
	State    *types.ExecutionState `json:"state,omitempty"`
	Error    string                `json:"error,omitempty"`
	Duration string                `json:"duration"`
}

// MarshalJSON renders the side with its error as text.
func (s Side) MarshalJSON() ([]byte, error) {
	enc := sideJSON{State: s.State, Duration: s.Duration.String()}
	if s.Err != nil {
		enc.Error = s.Err.Error()
	}
	return json.Marshal(&enc)
}

// Outcome pairs the two sides of one run. The panels are fixed by field, not
// by completion order.
type Outcome struct {
	Run     uint64 `json:"run"`
	EVM     Side   `json:"evm"`
	Kakarot Side   `json:"kakarot"`
}

// Dispatcher fans a program out to both backends. Only the outcome of the
// most recently started run is ever returned or published.
// Dispatcher 将程序分发给两个后端，只返回或发布最近一次启动的运行结果。
type Dispatcher struct {
	evm     Backend
	kakarot Backend

	runs   atomic.Uint64
	mu     sync.Mutex         // guards cancel and outcome publication
	cancel context.CancelFunc // cancels the latest run
	latest *Outcome

	outcomeFeed event.Feed
	scope       event.SubscriptionScope

	timers map[string]*metrics.Timer
	log    log.Logger
}

// New creates a dispatcher over the reference EVM and Kakarot backends.
func New(evm, kakarot Backend) *Dispatcher {
	d := &Dispatcher{
		evm:     evm,
		kakarot: kakarot,
		timers:  make(map[string]*metrics.Timer),
		log:     log.New("module", "dispatch"),
	}
	for _, b := range []Backend{evm, kakarot} {
		d.timers[b.Name()] = metrics.GetOrRegisterTimer("playground/dispatch/backend/"+b.Name(), nil)
	}
	return d
}

// Run executes code on both backends concurrently and waits for both. A side
// that fails is reported in its Side without hiding the other one. If a newer
// run started meanwhile, the result is dropped and ErrStaleRun returned.
func (d *Dispatcher) Run(ctx context.Context, code []byte, cc *callctx.CallContext) (*Outcome, error) {
	if cc == nil {
		cc = &callctx.CallContext{Value: new(uint256.Int), Data: []byte{}}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	id := d.runs.Add(1)
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	d.mu.Unlock()

	start := time.Now()
	d.log.Debug("Starting run", "run", id, "code", len(code), "value", cc.Value, "calldata", len(cc.Data))

	out := &Outcome{Run: id}
	// Plain group: one side failing must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		out.EVM = d.execute(ctx, d.evm, code, cc.Copy())
		return nil
	})
	g.Go(func() error {
		out.Kakarot = d.execute(ctx, d.kakarot, code, cc.Copy())
		return nil
	})
	g.Wait()
	runTimer.UpdateSince(start)

	d.mu.Lock()
	defer d.mu.Unlock()
	if latest := d.runs.Load(); latest != id {
		staleCounter.Inc(1)
		d.log.Debug("Dropping stale run", "run", id, "latest", latest)
		return nil, fmt.Errorf("%w: run %d superseded by %d", ErrStaleRun, id, latest)
	}
	d.latest = out
	d.outcomeFeed.Send(out)
	d.log.Info("Run finished", "run", id, "evm", sideStatus(out.EVM), "kakarot", sideStatus(out.Kakarot), "elapsed", time.Since(start))
	return out, nil
}

func (d *Dispatcher) execute(ctx context.Context, b Backend, code []byte, cc *callctx.CallContext) Side {
	start := time.Now()
	side := Side{}
	res, err := b.Execute(ctx, code, cc)
	if err == nil && res == nil {
		err = fmt.Errorf("%w: empty result", normalize.ErrMalformedResult)
	}
	if err == nil {
		side.State, err = res.Normalize()
	}
	side.Duration = time.Since(start)
	if t := d.timers[b.Name()]; t != nil {
		t.Update(side.Duration)
	}
	if err != nil {
		failedMeter.Mark(1)
		side.State = nil
		side.Err = &BackendError{Backend: b.Name(), Err: err}
		d.log.Warn("Backend execution failed", "backend", b.Name(), "err", err)
	}
	return side
}

func sideStatus(s Side) string {
	if s.Failed() {
		return "failed"
	}
	return "ok"
}

// Latest returns the outcome of the most recent completed, non-stale run.
func (d *Dispatcher) Latest() *Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latest
}

// SubscribeOutcomes registers a subscription for published outcomes. Stale
// runs are never delivered. Receivers must drain ch promptly, publication
// blocks until every subscriber has taken the value.
func (d *Dispatcher) SubscribeOutcomes(ch chan<- *Outcome) event.Subscription {
	return d.scope.Track(d.outcomeFeed.Subscribe(ch))
}

// Close cancels the in-flight run and ends all subscriptions.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()
	d.scope.Close()
}
