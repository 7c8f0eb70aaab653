// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/modcall"
	"github.com/bureau-foundation/gather/lib/process"
	"github.com/bureau-foundation/gather/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		socketPath  string
		jsonOutput  bool
		timeout     time.Duration
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("gather-call", pflag.ContinueOnError)
	flagSet.StringVar(&socketPath, "socket", os.Getenv("GATHER_SOCKET"), "node socket path (default: $GATHER_SOCKET)")
	flagSet.BoolVar(&jsonOutput, "json", false, "print the result as JSON instead of CBOR diagnostic notation")
	flagSet.DurationVar(&timeout, "timeout", 30*time.Second, "give up after this long")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: gather-call [flags] <module> <function> [payload | -]\n\nFlags:\n")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", process.ErrUsage, err)
	}
	if showVersion {
		fmt.Fprintln(stdout, version.Banner("gather-call"))
		return nil
	}

	positional := flagSet.Args()
	if len(positional) < 2 || len(positional) > 3 {
		flagSet.Usage()
		return fmt.Errorf("%w: expected <module> <function> [payload]", process.ErrUsage)
	}
	if socketPath == "" {
		return fmt.Errorf("%w: --socket or GATHER_SOCKET is required", process.ErrUsage)
	}
	module, function := positional[0], positional[1]

	var payload codec.RawMessage
	if len(positional) == 3 {
		source := []byte(positional[2])
		if positional[2] == "-" {
			var err error
			source, err = io.ReadAll(stdin)
			if err != nil {
				return fmt.Errorf("reading payload from stdin: %w", err)
			}
		}
		var err error
		payload, err = encodePayload(source)
		if err != nil {
			return fmt.Errorf("%w: %v", process.ErrUsage, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var result codec.RawMessage
	if err := modcall.NewSocketClient(socketPath).Call(ctx, module, function, payload, &result); err != nil {
		return err
	}
	return printResult(stdout, result, jsonOutput)
}

func printResult(stdout io.Writer, result codec.RawMessage, jsonOutput bool) error {
	if len(result) == 0 {
		return nil
	}
	if !jsonOutput {
		diagnostic, err := codec.Diagnose(result)
		if err != nil {
			return fmt.Errorf("formatting result: %w", err)
		}
		_, err = fmt.Fprintln(stdout, diagnostic)
		return err
	}
	var value any
	if err := codec.Unmarshal(result, &value); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toJSON(value))
}
