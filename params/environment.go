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

package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownNetwork = errors.New("unknown network")

// Explorers holds block explorer base URLs keyed by L1 chain.
type Explorers struct {
	Mainnet string
	Goerli  string
}

// Environment holds the endpoints and contract addresses the playground talks
// to on one network.
// Environment 保存 playground 在某个网络上使用的端点和合约地址。
type Environment struct {
	Name            string
	KakarotContract string // Starknet address of the Kakarot contract, empty if not deployed
	StarknetRPC     string // Starknet JSON-RPC endpoint
	L1RPC           string // Ethereum JSON-RPC endpoint used to load contract code
	L1Explorer      Explorers
	L2Explorer      Explorers
	EtherscanAPI    Explorers
}

var (
	l1Explorers = Explorers{
		Mainnet: "https://etherscan.io",
		Goerli:  "https://goerli.etherscan.io",
	}
	l2Explorers = Explorers{
		Mainnet: "https://starkscan.co",
		Goerli:  "https://testnet.starkscan.co",
	}
	etherscanAPIs = Explorers{
		Mainnet: "https://api.etherscan.io/api",
		Goerli:  "https://api-goerli.etherscan.io/api",
	}
)

// DevnetEnvironment talks to a local starknet-devnet.
var DevnetEnvironment = &Environment{
	Name:         "devnet",
	StarknetRPC:  "http://localhost:5050/rpc",
	L1RPC:        "http://localhost:8545",
	L1Explorer:   l1Explorers,
	L2Explorer:   l2Explorers,
	EtherscanAPI: etherscanAPIs,
}

// TestnetEnvironment is the public Starknet testnet deployment.
var TestnetEnvironment = &Environment{
	Name:            "testnet",
	KakarotContract: "0x031ddf73d0285cc2f08bd4a2c93229f595f2f6e64b25846fc0957a2faa7ef7bb",
	StarknetRPC:     "https://starknet-sepolia.public.blastapi.io/rpc/v0_7",
	L1RPC:           "https://rpc.sepolia.org",
	L1Explorer:      l1Explorers,
	L2Explorer:      l2Explorers,
	EtherscanAPI:    etherscanAPIs,
}

// MainnetEnvironment is Starknet mainnet. Kakarot has no mainnet deployment
// yet, so its contract address is left empty.
var MainnetEnvironment = &Environment{
	Name:         "mainnet",
	StarknetRPC:  "https://starknet-mainnet.public.blastapi.io/rpc/v0_7",
	L1RPC:        "https://cloudflare-eth.com",
	L1Explorer:   l1Explorers,
	L2Explorer:   l2Explorers,
	EtherscanAPI: etherscanAPIs,
}

var environments = map[string]*Environment{
	DevnetEnvironment.Name:  DevnetEnvironment,
	TestnetEnvironment.Name: TestnetEnvironment,
	MainnetEnvironment.Name: MainnetEnvironment,
}

// DefaultNetwork is used when no network is selected.
const DefaultNetwork = "devnet"

// NetworkNames lists the known networks in alphabetical order.
func NetworkNames() []string {
	names := make([]string, 0, len(environments))
	for name := range environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvironmentByName returns a copy of the preset for network, so callers may
// override fields freely. An empty name selects DefaultNetwork.
func EnvironmentByName(network string) (*Environment, error) {
	if network == "" {
		network = DefaultNetwork
	}
	env, ok := environments[strings.ToLower(network)]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownNetwork, network, strings.Join(NetworkNames(), ", "))
	}
	cpy := *env
	return &cpy, nil
}

// TxURL returns the L2 explorer link of a Starknet transaction.
func (e *Environment) TxURL(txHash string) string {
	base := e.L2Explorer.Mainnet
	if e.Name != MainnetEnvironment.Name {
		base = e.L2Explorer.Goerli
	}
	return strings.TrimSuffix(base, "/") + "/tx/" + txHash
}
