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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kkrt-labs/kakarot-playground/core/dispatch"
	"github.com/kkrt-labs/kakarot-playground/core/types"
	"github.com/olekukonko/tablewriter"
)

// memoryRowBytes is the number of memory bytes shown per table line.
const memoryRowBytes = 32

// printOutcome renders both sides of a run next to each other.
func printOutcome(w io.Writer, out *dispatch.Outcome) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{fmt.Sprintf("run %d", out.Run), "EVM", "Kakarot"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	evm, kkrt := sideRows(out.EVM), sideRows(out.Kakarot)
	for i, field := range stateFields {
		table.Append([]string{field, evm[i], kkrt[i]})
	}
	table.Append([]string{"Duration", out.EVM.Duration.String(), out.Kakarot.Duration.String()})
	table.Render()
}

var stateFields = []string{"Status", "Stack", "Memory", "Storage", "PC", "Total gas", "Current gas", "Return value"}

// sideRows returns one cell per entry of stateFields.
func sideRows(s dispatch.Side) []string {
	rows := make([]string, len(stateFields))
	if s.Failed() {
		rows[0] = "failed: " + s.Err.Error()
		return rows
	}
	st := s.State
	rows[0] = "ok"
	rows[1] = strings.Join(st.StackHex(), "\n")
	rows[2] = formatMemory(st.Memory)
	rows[3] = formatStorage(st)
	rows[4] = formatOptional(st.PC)
	rows[5] = formatOptional(st.TotalGas)
	rows[6] = formatOptional(st.CurrentGas)
	if st.ReturnValue != nil {
		rows[7] = "0x" + hex.EncodeToString(st.ReturnValue)
	}
	return rows
}

func formatMemory(mem []byte) string {
	var lines []string
	for off := 0; off < len(mem); off += memoryRowBytes {
		end := min(off+memoryRowBytes, len(mem))
		lines = append(lines, fmt.Sprintf("%04x: %x", off, mem[off:end]))
	}
	return strings.Join(lines, "\n")
}

func formatStorage(st *types.ExecutionState) string {
	var lines []string
	for _, slot := range st.StorageSlots() {
		v := st.Storage[slot]
		lines = append(lines, slot.Hex()+": "+v.Hex())
	}
	return strings.Join(lines, "\n")
}

func formatOptional(v *uint64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
