// Copyright 2017 The go-ethereum Authors
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

// These are the multipliers for the ether denominations a call value can be
// entered in. Each is an exact power of ten of wei.
//
// 这些是调用金额可以使用的以太币单位的乘数，均为 wei 的精确十的幂。
const (
	Wei    = 1    // 最小单位
	GWei   = 1e9  // 1,000,000,000 Wei
	Finney = 1e15 // 1,000,000,000,000,000 Wei，即千分之一 Ether
	Ether  = 1e18 // 1,000,000,000,000,000,000 Wei
)
