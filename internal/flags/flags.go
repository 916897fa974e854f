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

package flags

import (
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kkrt-labs/kakarot-playground/core/callctx"
	"github.com/urfave/cli/v2"
)

// PathString is a flag.Value that expands the received string to a clean
// path when the argument is parsed.
// PathString 是一个 flag.Value，在解析参数时将值扩展为规范路径。
type PathString string

func (s *PathString) String() string {
	return string(*s)
}

func (s *PathString) Set(value string) error {
	*s = PathString(expandPath(value))
	return nil
}

var (
	_ cli.Flag              = (*PathFlag)(nil)
	_ cli.RequiredFlag      = (*PathFlag)(nil)
	_ cli.VisibleFlag       = (*PathFlag)(nil)
	_ cli.DocGenerationFlag = (*PathFlag)(nil)
	_ cli.CategorizableFlag = (*PathFlag)(nil)
)

// PathFlag is a cli.Flag naming a file, e.g. ~/playground.toml ->
// /home/username/playground.toml
// PathFlag 是一个表示文件路径的 CLI 标志，会展开波浪号和环境变量。
type PathFlag struct {
	Name string

	Category    string
	DefaultText string
	Usage       string

	Required   bool
	Hidden     bool
	HasBeenSet bool

	Value PathString

	Aliases []string
	EnvVars []string
}

// For cli.Flag:
func (f *PathFlag) Names() []string { return append([]string{f.Name}, f.Aliases...) }
func (f *PathFlag) IsSet() bool     { return f.HasBeenSet }
func (f *PathFlag) String() string  { return cli.FlagStringer(f) }

// Apply called by cli library, grabs variable from environment (if in env)
// and adds variable to flag set for parsing.
// Every flag set parses into its own copy of the value, so Value stays the
// default across runs.
func (f *PathFlag) Apply(set *flag.FlagSet) error {
	value := f.Value
	for _, envVar := range f.EnvVars {
		envVar = strings.TrimSpace(envVar)
		if env, found := syscall.Getenv(envVar); found {
			value.Set(env)
			f.HasBeenSet = true
			break
		}
	}
	eachName(f, func(name string) {
		set.Var(&value, name, f.Usage)
	})
	return nil
}

// For cli.RequiredFlag:
func (f *PathFlag) IsRequired() bool { return f.Required }

// For cli.VisibleFlag:
func (f *PathFlag) IsVisible() bool { return !f.Hidden }

// For cli.CategorizableFlag:
func (f *PathFlag) GetCategory() string { return f.Category }

// For cli.DocGenerationFlag:
func (f *PathFlag) TakesValue() bool     { return true }
func (f *PathFlag) GetUsage() string     { return f.Usage }
func (f *PathFlag) GetValue() string     { return f.Value.String() }
func (f *PathFlag) GetEnvVars() []string { return f.EnvVars }
func (f *PathFlag) GetDefaultText() string {
	if f.DefaultText != "" {
		return f.DefaultText
	}
	return f.GetValue()
}

var (
	_ cli.Flag              = (*UnitFlag)(nil)
	_ cli.RequiredFlag      = (*UnitFlag)(nil)
	_ cli.VisibleFlag       = (*UnitFlag)(nil)
	_ cli.DocGenerationFlag = (*UnitFlag)(nil)
	_ cli.CategorizableFlag = (*UnitFlag)(nil)
)

// UnitFlag is a command line flag that accepts an ether denomination name
// such as Wei or Gwei, case-insensitively.
// UnitFlag 是一个命令行标志，接受 Wei、Gwei 等以太币面额名称（不区分大小写）。
type UnitFlag struct {
	Name string

	Category    string
	DefaultText string
	Usage       string

	Required   bool
	Hidden     bool
	HasBeenSet bool

	Value callctx.Unit

	Aliases []string
	EnvVars []string
}

// For cli.Flag:

func (f *UnitFlag) Names() []string { return append([]string{f.Name}, f.Aliases...) }
func (f *UnitFlag) IsSet() bool     { return f.HasBeenSet }
func (f *UnitFlag) String() string  { return cli.FlagStringer(f) }

func (f *UnitFlag) Apply(set *flag.FlagSet) error {
	value := f.Value
	for _, envVar := range f.EnvVars {
		envVar = strings.TrimSpace(envVar)
		if env, found := syscall.Getenv(envVar); found {
			if err := (*unitValue)(&value).Set(env); err != nil {
				return fmt.Errorf("could not parse %q from environment variable %q for flag %s", env, envVar, f.Name)
			}
			f.HasBeenSet = true
			break
		}
	}
	eachName(f, func(name string) {
		set.Var((*unitValue)(&value), name, f.Usage)
	})
	return nil
}

// For cli.RequiredFlag:

func (f *UnitFlag) IsRequired() bool { return f.Required }

// For cli.VisibleFlag:

func (f *UnitFlag) IsVisible() bool { return !f.Hidden }

// For cli.CategorizableFlag:

func (f *UnitFlag) GetCategory() string { return f.Category }

// For cli.DocGenerationFlag:

func (f *UnitFlag) TakesValue() bool     { return true }
func (f *UnitFlag) GetUsage() string     { return f.Usage }
func (f *UnitFlag) GetValue() string     { return f.Value.String() }
func (f *UnitFlag) GetEnvVars() []string { return f.EnvVars }
func (f *UnitFlag) GetDefaultText() string {
	if f.DefaultText != "" {
		return f.DefaultText
	}
	return f.Value.String()
}

// unitValue turns *callctx.Unit into a flag.Value
type unitValue callctx.Unit

func (u *unitValue) String() string {
	if u == nil {
		return ""
	}
	return callctx.Unit(*u).String()
}

func (u *unitValue) Set(s string) error {
	unit, err := callctx.ParseUnit(s)
	if err != nil {
		return err
	}
	*u = unitValue(unit)
	return nil
}

// GlobalUnit returns the value of a UnitFlag from the flag set.
// GlobalUnit 从标志集中返回 UnitFlag 的值。
func GlobalUnit(ctx *cli.Context, name string) callctx.Unit {
	val := ctx.Generic(name)
	if val == nil {
		return callctx.Wei
	}
	return callctx.Unit(*val.(*unitValue))
}

// Expands a file path
// 1. replace tilde with users home dir
// 2. expands embedded environment variables
// 3. cleans the path, e.g. /a/b/../c -> /a/c
// Note, it has limitations, e.g. ~someuser/tmp will not be expanded
func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := HomeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}

func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func eachName(f cli.Flag, fn func(string)) {
	for _, name := range f.Names() {
		name = strings.Trim(name, " ")
		fn(name)
	}
}
