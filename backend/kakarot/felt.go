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
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/kkrt-labs/kakarot-playground/core/normalize"
	"golang.org/x/crypto/sha3"
)

// Felt 是 Starknet 的原生标量，小于 2^251 + 17·2^192 + 1，这里统一用 0x 前缀的十六进制字符串传输。

var errFeltRange = errors.New("value out of felt range")

// feltPrime is the Starknet field modulus 2^251 + 17*2^192 + 1.
var feltPrime = func() *uint256.Int {
	p := new(uint256.Int).Lsh(uint256.NewInt(1), 251)
	p.Add(p, new(uint256.Int).Lsh(uint256.NewInt(17), 192))
	return p.AddUint64(p, 1)
}()

// selectorMask keeps the low 250 bits of a Keccak digest.
var selectorMask = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 250), uint256.NewInt(1))

// Selector returns the entry point selector of a Cairo function: the
// Keccak-256 digest of its name truncated to 250 bits.
func Selector(name string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	v := new(uint256.Int).SetBytes(h.Sum(nil))
	return v.And(v, selectorMask).Hex()
}

// feltUint64 encodes a small integer as a felt.
func feltUint64(v uint64) string {
	return fmt.Sprintf("%#x", v)
}

// encodeBytes encodes b as a Cairo felt array: its length followed by one felt
// per byte.
func encodeBytes(b []byte) []string {
	out := make([]string, 0, len(b)+1)
	out = append(out, feltUint64(uint64(len(b))))
	for _, c := range b {
		out = append(out, feltUint64(uint64(c)))
	}
	return out
}

// encodeUint256 splits v into the low and high 128-bit felts of a Cairo
// Uint256.
func encodeUint256(v *uint256.Int) []string {
	if v == nil {
		return []string{"0x0", "0x0"}
	}
	low := new(uint256.Int).SetUint64(v[0])
	low[1] = v[1]
	high := new(uint256.Int).SetUint64(v[2])
	high[1] = v[3]
	return []string{low.Hex(), high.Hex()}
}

// encodeFelt validates a hex felt and returns it in canonical form.
func encodeFelt(s string) (string, error) {
	v, err := normalize.ParseFelt(s)
	if err != nil {
		return "", err
	}
	if !v.Lt(feltPrime) {
		return "", fmt.Errorf("%w: %s", errFeltRange, s)
	}
	return v.Hex(), nil
}

// feltReader consumes a felt array front to back.
type feltReader struct {
	felts []string
	pos   int
}

func (r *feltReader) next() (*uint256.Int, error) {
	if r.pos >= len(r.felts) {
		return nil, fmt.Errorf("%w: response ends after %d felts", normalize.ErrMalformedResult, len(r.felts))
	}
	v, err := normalize.ParseFelt(r.felts[r.pos])
	if err != nil {
		return nil, fmt.Errorf("%w: felt %d: %v", normalize.ErrMalformedResult, r.pos, err)
	}
	r.pos++
	return v, nil
}

// length reads a felt used as an array length, bounded by what is left.
func (r *feltReader) length(per int) (int, error) {
	v, err := r.next()
	if err != nil {
		return 0, err
	}
	left := uint64(len(r.felts) - r.pos)
	if !v.IsUint64() || v.Uint64() > left/uint64(per) {
		return 0, fmt.Errorf("%w: array length %s exceeds %d remaining felts", normalize.ErrMalformedResult, v.Dec(), left)
	}
	return int(v.Uint64()), nil
}

// readUint256 reads a Cairo Uint256 (low, high).
func (r *feltReader) readUint256() (*uint256.Int, error) {
	low, err := r.next()
	if err != nil {
		return nil, err
	}
	high, err := r.next()
	if err != nil {
		return nil, err
	}
	if low[2] != 0 || low[3] != 0 || high[2] != 0 || high[3] != 0 {
		return nil, fmt.Errorf("%w: Uint256 limb exceeds 128 bits", normalize.ErrMalformedResult)
	}
	return &uint256.Int{low[0], low[1], high[0], high[1]}, nil
}
