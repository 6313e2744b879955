//go:build wasip1

// Command guest is the library side of the boundary, built as a wasm reactor.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o handoff.wasm ./cmd/guest
//
// The host calls _initialize once and then the exported entry points.
package main

import _ "github.com/jdavidagudelo/handoff/guest" // Register the exports

func main() {}
