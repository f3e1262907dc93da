// Package mocks provides test doubles for the store, generation, storage
// and queue contracts. Each mock works in memory by default and exposes Fn
// fields so tests can override individual calls.
package mocks
