// Package wazero runs the guest library in the wazero WebAssembly runtime.
//
// It handles:
//
//   - Registering the handoff_host imports from a hostfuncs.HandlerRegistry
//   - Reading packed i64 pointer+length payloads from guest memory
//   - Instantiating the wasip1 reactor and calling _initialize
//   - Mapping the fail-fast exit of a guest to the violation it reported
//
// # Basic Usage
//
//	wasm, _ := os.ReadFile("guest.wasm")
//	g, err := wazero.Load(ctx, wasm, wazero.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer g.Close(ctx)
//
//	lib, err := host.Open(ctx, g)
//
// # Custom Registries
//
// RegisterWithRuntime can serve any registry to a runtime the caller owns:
//
//	registry, _ := hostfuncs.NewBoundaryRegistry(logger, recorder)
//	err = wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithModuleName("handoff_host"),
//	)
package wazero
