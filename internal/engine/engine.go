// Package engine dispatches compression work across cargo build directories.
//
// The implementation is split across files:
// - dispatcher.go: per-directory workers and outcome aggregation
// - factory.go: production dependency wiring
// - safegroup.go: panic-safe goroutine group
// - interfaces.go: collaborator interfaces
package engine
