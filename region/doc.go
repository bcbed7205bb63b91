// Package region models the heap geometry of a region-based
// collector: the per-region descriptor, the fixed region universe
// derived from heap configuration, and the region-local
// evacuation-failure flag.
package region
