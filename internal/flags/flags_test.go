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

package flags

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestPathExpansion(t *testing.T) {
	home := HomeDir()
	tests := map[string]string{
		"/home/someuser/tmp": "/home/someuser/tmp",
		"~/tmp":              filepath.Join(home, "tmp"),
		"~thisOtherUser/b/":  "~thisOtherUser/b",
		"$DDDXXX/a/b":        "/tmp/a/b",
		"/a/b/":              "/a/b",
	}
	t.Setenv("DDDXXX", "/tmp")
	for test, expected := range tests {
		assert.Equal(t, expected, expandPath(test), "input %s", test)
	}
}

func runApp(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	var got *cli.Context
	app := &cli.App{
		Flags: flags,
		Action: func(ctx *cli.Context) error {
			got = ctx
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"playground"}, args...)))
	return got
}

func TestUnitFlag(t *testing.T) {
	unit := &UnitFlag{Name: "unit", Value: callctx.Gwei}
	ctx := runApp(t, []cli.Flag{unit}, "--unit", "ether")
	assert.Equal(t, callctx.Ether, GlobalUnit(ctx, "unit"))
	assert.True(t, ctx.IsSet("unit"))
	assert.Equal(t, "Gwei", unit.GetDefaultText())

	ctx = runApp(t, []cli.Flag{&UnitFlag{Name: "unit", Value: callctx.Finney}})
	assert.Equal(t, callctx.Finney, GlobalUnit(ctx, "unit"))

	app := &cli.App{Flags: []cli.Flag{&UnitFlag{Name: "unit"}}, Action: func(*cli.Context) error { return nil }}
	app.Writer, app.ErrWriter = io.Discard, io.Discard
	assert.Error(t, app.Run([]string{"playground", "--unit", "shannon"}))
}

func TestUnitFlagEnv(t *testing.T) {
	t.Setenv("PLAYGROUND_UNIT", "finney")
	ctx := runApp(t, []cli.Flag{&UnitFlag{Name: "unit", EnvVars: []string{"PLAYGROUND_UNIT"}}})
	assert.Equal(t, callctx.Finney, GlobalUnit(ctx, "unit"))
}

func TestPathFlag(t *testing.T) {
	t.Setenv("CFGDIR", "/etc/playground")
	cfg := &PathFlag{Name: "config"}
	ctx := runApp(t, []cli.Flag{cfg}, "--config", "$CFGDIR/./playground.toml")
	assert.Equal(t, "/etc/playground/playground.toml", ctx.String("config"))
	assert.Empty(t, cfg.Value.String())

	// A later run without the flag doesn't see the earlier value.
	ctx = runApp(t, []cli.Flag{cfg})
	assert.Empty(t, ctx.String("config"))
}

func TestUnitFlagResetsBetweenRuns(t *testing.T) {
	unit := &UnitFlag{Name: "unit", Value: callctx.Gwei}
	runApp(t, []cli.Flag{unit}, "--unit", "ether")

	ctx := runApp(t, []cli.Flag{unit})
	assert.Equal(t, callctx.Gwei, GlobalUnit(ctx, "unit"))
	assert.False(t, ctx.IsSet("unit"))
}
