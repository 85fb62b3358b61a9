// Package tuner picks resource-dependent defaults for an install: the
// number of concurrent downloads and whether the install root has room for
// a plan.
package tuner

import "runtime"

// Worker limits.
const (
	// minWorkers keeps a few transfers in flight even on small machines;
	// downloads are network bound, not CPU bound.
	minWorkers = 4

	// maxAutoWorkers caps the computed default so a many-core host does not
	// open dozens of connections to one CDN.
	maxAutoWorkers = 16

	// maxWorkers caps explicit overrides.
	maxWorkers = 64
)

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int
}

// Detect detects available system resources.
func Detect() SystemResources {
	return SystemResources{CPUCores: runtime.NumCPU()}
}

// Workers returns the download worker count: override when positive
// (capped at 64), otherwise twice the core count clamped to 4..16.
func Workers(resources SystemResources, override int) int {
	if override > 0 {
		return min(override, maxWorkers)
	}
	workers := resources.CPUCores * 2
	workers = max(workers, minWorkers)
	return min(workers, maxAutoWorkers)
}
