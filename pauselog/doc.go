// Package pauselog persists per-pause evacuation-failure reports to an
// append-only, CRC-framed, optionally compressed local log for offline
// analysis.
package pauselog
