// Package pause runs evacuation pauses: a fixed worker pool, the
// parallel evacuation phase with its end barrier, claim-based parallel
// iteration over the failed set, and pacing for the repair phase.
package pause
