// Package snapshot provides immutable roaring-bitmap snapshots of the
// evacuation-failed region set for repair planning and logging.
package snapshot
