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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentByName(t *testing.T) {
	env, err := EnvironmentByName("")
	require.NoError(t, err)
	assert.Equal(t, "devnet", env.Name)

	env, err = EnvironmentByName("TESTNET")
	require.NoError(t, err)
	assert.NotEmpty(t, env.KakarotContract)

	// Presets are handed out as copies.
	env.KakarotContract = "0x1"
	again, _ := EnvironmentByName("testnet")
	assert.NotEqual(t, "0x1", again.KakarotContract)

	_, err = EnvironmentByName("ropsten")
	assert.ErrorIs(t, err, ErrUnknownNetwork)
	assert.Equal(t, []string{"devnet", "mainnet", "testnet"}, NetworkNames())
}

func TestTxURL(t *testing.T) {
	assert.Equal(t, "https://starkscan.co/tx/0x1", MainnetEnvironment.TxURL("0x1"))
	assert.Equal(t, "https://testnet.starkscan.co/tx/0x2", TestnetEnvironment.TxURL("0x2"))
}
