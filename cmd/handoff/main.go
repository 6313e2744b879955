// Command handoff drives the guest library through every boundary operation
// and prints what crossed it.
//
// Usage:
//
//	handoff [-config handoff.yaml] [-backend inproc|wazero] [-wasm handoff.wasm]
//	handoff -schema config|manifest
//	handoff -manifest
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jdavidagudelo/handoff/application/config"
	"github.com/jdavidagudelo/handoff/application/manifest"
	"golang.org/x/term"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to a YAML config file")
		backend    = flag.String("backend", "", "Guest backend: inproc or wazero (overrides config)")
		wasmFile   = flag.String("wasm", "", "Path to the guest wasm module (overrides config)")
		schemaOf   = flag.String("schema", "", "Print the JSON schema of 'config' or 'manifest' and exit")
		showMan    = flag.Bool("manifest", false, "Print the boundary manifest and exit")
		noColor    = flag.Bool("no-color", false, "Disable styled output")
	)
	flag.Parse()

	if *schemaOf != "" {
		if err := printSchema(os.Stdout, *schemaOf); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if *showMan {
		_, _ = os.Stdout.Write(manifest.Raw())
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Guest.Backend = *backend
	}
	if *wasmFile != "" {
		cfg.Guest.Path = *wasmFile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	styled := !*noColor && term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // G115: fd fits in int
	if err := run(context.Background(), cfg, newPrinter(os.Stdout, styled)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printSchema(w io.Writer, of string) error {
	var (
		data []byte
		err  error
	)
	switch of {
	case "config":
		data, err = config.Schema()
	case "manifest":
		data, err = manifest.Schema()
	default:
		return fmt.Errorf("unknown schema %q, want config or manifest", of)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
