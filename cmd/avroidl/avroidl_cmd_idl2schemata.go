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
	"path/filepath"

	"github.com/spf13/pflag"

	"go.avroidl.org/avroidl/compiler"
	"go.avroidl.org/avroidl/encoding/avsc"
	"go.avroidl.org/avroidl/syntax"
)

type cmdIdl2Schemata struct {
	outDir     string
	searchDirs []string
	verbose    bool
}

func (cmd *cmdIdl2Schemata) help() *commandHelp {
	return &commandHelp{
		usage:   "idl2schemata [options] FILE.avdl",
		summary: "Extract each named type from an Avro IDL file into its own .avsc file",
	}
}

func (cmd *cmdIdl2Schemata) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outDir, "output", "o", ".",
		"Directory to write .avsc files into")
	flags.StringArrayVarP(&cmd.searchDirs, "search", "s", nil,
		"Additional directory to search for imported files (repeatable)")
	flags.BoolVarP(&cmd.verbose, "verbose", "v", false,
		"Log import resolution to stderr")
}

func (cmd *cmdIdl2Schemata) run(ctx context.Context, argv []string) int {
	if len(argv) != 1 {
		fmt.Fprintln(os.Stderr, "usage: avroidl idl2schemata [options] FILE.avdl")
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

	schemata, result := compiler.CompileToNamedSchemata(unit,
		compiler.WithSourcePath(srcPath),
		compiler.WithSearchDirs(cmd.searchDirs),
		compiler.WithLogger(newLogger(cmd.verbose)),
	)
	if printDiagnostics(printer, &result) {
		return 1
	}

	if err := os.MkdirAll(cmd.outDir, 0o777); err != nil {
		fmt.Fprintf(os.Stderr, "avroidl: %v\n", err)
		return 1
	}
	for _, named := range schemata {
		outPath := filepath.Join(cmd.outDir, named.TypeName()+".avsc")
		output := avsc.EncodeSchema(named)
		if err := os.WriteFile(outPath, []byte(output), 0o666); err != nil {
			fmt.Fprintf(os.Stderr, "avroidl: %v\n", err)
			return 1
		}
	}
	return 0
}
