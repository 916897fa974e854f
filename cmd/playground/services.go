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
	"context"

	"github.com/ethereum/go-ethereum/log"
	"github.com/kkrt-labs/kakarot-playground/backend/evm"
	"github.com/kkrt-labs/kakarot-playground/backend/kakarot"
	"github.com/kkrt-labs/kakarot-playground/backend/l1"
	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/kkrt-labs/kakarot-playground/core/dispatch"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
	"github.com/kkrt-labs/kakarot-playground/core/vm"
	"github.com/kkrt-labs/kakarot-playground/internal/playgroundapi"
)

// offlineKakarot stands in for the Kakarot side when the network has no
// Kakarot deployment configured. Every run reports it as failed.
type offlineKakarot struct{}

func (offlineKakarot) Name() string { return kakarot.Name }

func (offlineKakarot) Execute(context.Context, []byte, *callctx.CallContext) (normalize.Result, error) {
	return nil, playgroundapi.ErrNoKakarot
}

// makeServices connects the backends described by cfg. Endpoints are dialed
// lazily by the rpc package, so an unreachable node only fails the calls that
// need it.
func makeServices(ctx context.Context, cfg *playgroundConfig) (*playgroundapi.Services, error) {
	services := &playgroundapi.Services{
		Opcodes: vm.DefaultTable(),
		Env:     &cfg.Env,
	}
	var kakarotSide dispatch.Backend = offlineKakarot{}
	if cfg.Env.KakarotContract != "" && cfg.Env.StarknetRPC != "" {
		kc, err := kakarot.Dial(ctx, cfg.Env.StarknetRPC, cfg.Env.KakarotContract)
		if err != nil {
			return nil, err
		}
		services.Kakarot = kc.WithBlock(cfg.Kakarot.Block)
		kakarotSide = services.Kakarot
	} else {
		log.Warn("Kakarot backend disabled, no contract configured", "network", cfg.Env.Name)
	}
	if cfg.Env.L1RPC != "" {
		f, err := l1.Dial(ctx, cfg.Env.L1RPC)
		if err != nil {
			closeServices(services)
			return nil, err
		}
		services.L1 = f
	}
	services.Dispatcher = dispatch.New(evm.New(cfg.EVM), kakarotSide)
	log.Info("Playground services ready", "network", cfg.Env.Name, "kakarot", cfg.Env.KakarotContract, "gaslimit", cfg.EVM.GasLimit)
	return services, nil
}

func closeServices(s *playgroundapi.Services) {
	if s.Dispatcher != nil {
		s.Dispatcher.Close()
	}
	if s.Kakarot != nil {
		s.Kakarot.Close()
	}
	if s.L1 != nil {
		s.L1.Close()
	}
}
