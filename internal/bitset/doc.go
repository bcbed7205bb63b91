// Package bitset provides a lock-free bitset over a fixed universe.
//
// Architecture:
//   - Flat []atomic.Uint64 word array, sized once at construction
//   - Lock-free mutation: CAS loop for SetIfClear, atomic Or for Set
//   - Resize only at safepoints (no concurrent mutators)
//
// Used internally for:
//   - The exactly-once gate in evacuation-failure recording
//   - Per-slot claim tracking during parallel repair iteration
package bitset
