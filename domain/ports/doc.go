// Package ports defines interfaces for infrastructure operations.
// These ports enable dependency inversion - the guest contract and the host API
// depend on abstractions, and the wazero / in-process backends implement them.
package ports
