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

// Package l1 loads the code of contracts deployed on Ethereum so it can be
// opened in the playground.
package l1

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrInvalidAddress = errors.New("invalid contract address")
	ErrNoCode         = errors.New("no code at address")
)

// Fetcher reads contract code from an Ethereum node.
type Fetcher struct {
	c   *ethclient.Client
	log log.Logger
}

// Dial connects a fetcher to the node at rawurl.
func Dial(ctx context.Context, rawurl string) (*Fetcher, error) {
	c, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewFetcher(c), nil
}

// NewFetcher creates a fetcher using the given client.
func NewFetcher(c *ethclient.Client) *Fetcher {
	return &Fetcher{c: c, log: log.New("module", "l1")}
}

// Close closes the underlying connection.
func (f *Fetcher) Close() {
	f.c.Close()
}

// Code returns the runtime code of the contract at address. A nil block
// number selects the latest block.
func (f *Fetcher) Code(ctx context.Context, address string, block *big.Int) ([]byte, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	addr := common.HexToAddress(address)
	code, err := f.c.CodeAt(ctx, addr, block)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoCode, addr.Hex())
	}
	f.log.Debug("Fetched contract code", "address", addr, "size", len(code))
	return code, nil
}
