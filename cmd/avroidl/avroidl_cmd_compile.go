// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"go.avroidl.org/avroidl/compiler"
	"go.avroidl.org/avroidl/encoding/avsc"
	"go.avroidl.org/avroidl/syntax"
)

type cmdCompile struct {
	outPath    string
	searchDirs []string
	verbose    bool
}

func (cmd *cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile [options] FILE.avdl",
		summary: "Compile an Avro IDL file to Avro protocol or schema JSON",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outPath, "output", "o", "",
		"Write output to this path instead of stdout")
	flags.StringArrayVarP(&cmd.searchDirs, "search", "s", nil,
		"Additional directory to search for imported files (repeatable)")
	flags.BoolVarP(&cmd.verbose, "verbose", "v", false,
		"Log import resolution to stderr")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	if len(argv) != 1 {
		fmt.Fprintln(os.Stderr, "usage: avroidl compile [options] FILE.avdl")
		return 1
	}
	srcPath := argv[0]
	src, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "avroidl: %v\n", err)
		return 1
	}
	printer := &diagPrinter{out: os.Stderr, path: srcPath, src: src}

	unit, err := syntax.Parse(src)
	if err != nil {
		var syntaxErr *syntax.Error
		if errors.As(err, &syntaxErr) {
			printer.syntaxError(syntaxErr)
		} else {
			fmt.Fprintf(os.Stderr, "avroidl: %v\n", err)
		}
		return 1
	}

	result := compiler.Compile(unit,
		compiler.WithSourcePath(srcPath),
		compiler.WithSearchDirs(cmd.searchDirs),
		compiler.WithLogger(newLogger(cmd.verbose)),
	)
	if printDiagnostics(printer, &result) {
		return 1
	}

	var output string
	switch {
	case result.Protocol != nil:
		output = avsc.EncodeProtocol(result.Protocol)
	case len(result.Schemata) == 1:
		output = avsc.EncodeSchema(result.Schemata[0])
	default:
		fmt.Fprintf(os.Stderr,
			"avroidl: %q defines %d named types; use `avroidl idl2schemata` to emit one file per type\n",
			srcPath, len(result.Schemata))
		return 1
	}

	if cmd.outPath == "" {
		os.Stdout.WriteString(output)
		return 0
	}
	out, err := os.OpenFile(cmd.outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "avroidl: %v\n", err)
		return 1
	}
	_, writeErr := out.WriteString(output)
	closeErr := out.Close()
	if writeErr != nil {
		fmt.Fprintf(os.Stderr, "avroidl: %v\n", writeErr)
		return 1
	}
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "avroidl: %v\n", closeErr)
		return 1
	}
	return 0
}
