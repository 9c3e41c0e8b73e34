// Package memory contains concrete MemoryStore implementations. The store
// interface, MemoryRecord and SearchResult types reside in the core package.
// Depend on core.MemoryStore in your code and select an implementation (like
// the VolatileStore below) at wiring time.
//
// Search is a brute-force linear scan; an approximate nearest-neighbour index
// is the scale-up path and can be introduced behind the same contract.
package memory
