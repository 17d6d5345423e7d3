// Package pipeline turns raw detection events into authorized actions.
//
// The integrator owns three bounded channels and two worker
// goroutines. Producers submit detection events to the first channel.
// A single routing goroutine interprets them, then runs fusion,
// debounce, sequence recognition, continuous tracking, and priority
// scoring; every stage there is single-owner state needing no locks.
// Prioritized batches go to the second channel, where a single
// processing goroutine runs conflict resolution, consults the profile
// rule engine, applies the drag latch, and emits actions to the third
// channel for the executor.
//
// No send blocks indefinitely: a send that cannot complete within the
// configured timeout drops the item and increments an overflow
// counter. Every stage is fail-open; a bad item never halts the
// pipeline.
package pipeline
