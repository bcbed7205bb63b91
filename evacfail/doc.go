// Package evacfail tracks which heap regions failed evacuation during
// a collection pause.
//
// The recorder is lock-free: a bitset gate makes recording
// exactly-once per region, an atomic counter hands each first recorder
// an exclusive dense-list slot, and no caller ever blocks another.
// Cross-thread visibility of recorded state is the enclosing pause's
// job (its end barrier), not this package's.
package evacfail
