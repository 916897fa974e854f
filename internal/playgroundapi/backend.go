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

// Package playgroundapi implements the JSON-RPC API the playground UI calls.
package playgroundapi

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/kkrt-labs/kakarot-playground/backend/kakarot"
	"github.com/kkrt-labs/kakarot-playground/backend/l1"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/dispatch"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
	"github.com/kkrt-labs/kakarot-playground/core/vm"
	"github.com/kkrt-labs/kakarot-playground/params"
)

var (
	ErrNoKakarot = errors.New("kakarot backend not configured")
	ErrNoL1      = errors.New("l1 endpoint not configured")
)

// Backend provides the API with the playground services.
// Backend 为 API 提供 playground 的各项服务。
type Backend interface {
	Table() vm.Table
	Environment() *params.Environment

	Run(ctx context.Context, code []byte, cc *callctx.CallContext) (*dispatch.Outcome, error)
	SubscribeOutcomes(ch chan<- *dispatch.Outcome) event.Subscription

	Transcript(ctx context.Context, txHash string) (*normalize.Transcript, error)
	FetchCode(ctx context.Context, address string) ([]byte, error)
}

// GetAPIs returns the services the playground exposes.
func GetAPIs(b Backend) []rpc.API {
	return []rpc.API{
		{
			Namespace: "playground",
			Service:   NewPlaygroundAPI(b),
		},
	}
}

// Services is the Backend assembled from the concrete components. Kakarot
// and L1 are optional; calls needing a missing one fail.
type Services struct {
	Opcodes    vm.Table
	Env        *params.Environment
	Dispatcher *dispatch.Dispatcher
	Kakarot    *kakarot.Client
	L1         *l1.Fetcher
}

func (s *Services) Table() vm.Table { return s.Opcodes }

func (s *Services) Environment() *params.Environment { return s.Env }

func (s *Services) Run(ctx context.Context, code []byte, cc *callctx.CallContext) (*dispatch.Outcome, error) {
	return s.Dispatcher.Run(ctx, code, cc)
}

func (s *Services) SubscribeOutcomes(ch chan<- *dispatch.Outcome) event.Subscription {
	return s.Dispatcher.SubscribeOutcomes(ch)
}

func (s *Services) Transcript(ctx context.Context, txHash string) (*normalize.Transcript, error) {
	if s.Kakarot == nil {
		return nil, ErrNoKakarot
	}
	return s.Kakarot.Transcript(ctx, txHash)
}

func (s *Services) FetchCode(ctx context.Context, address string) ([]byte, error) {
	if s.L1 == nil {
		return nil, ErrNoL1
	}
	return s.L1.Code(ctx, address, nil)
}
