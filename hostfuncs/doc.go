// Package hostfuncs provides the host side of the guest's handoff_host imports.
// Handlers work on raw payload bytes and have NO WASM runtime dependencies, so
// the wazero backend and the in-process guest dispatch through the same registry.
package hostfuncs
