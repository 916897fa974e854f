// Copyright 2015 The go-ethereum Authors
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

package vm

// Gas costs
const (
	GasZero        uint64 = 0
	GasJumpDest    uint64 = 1
	GasQuickStep   uint64 = 2  // 快速步骤的Gas成本
	GasFastestStep uint64 = 3  // 最快步骤的Gas成本
	GasFastStep    uint64 = 5  // 快步骤的Gas成本
	GasMidStep     uint64 = 8  // 中等步骤的Gas成本
	GasSlowStep    uint64 = 10 // 慢步骤的Gas成本
	GasExtStep     uint64 = 20 // 扩展步骤的Gas成本

	// Warm access costs (EIP-2929), charged up front for account and storage reads.
	GasWarmAccess uint64 = 100

	GasKeccak256    uint64 = 30
	GasLog          uint64 = 375
	GasLogTopic     uint64 = 375
	GasCreate       uint64 = 32000
	GasSelfdestruct uint64 = 5000
)

// logGas returns the static cost of LOGn.
func logGas(topics int) uint64 {
	return GasLog + uint64(topics)*GasLogTopic
}
