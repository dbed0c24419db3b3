package engine

// DiffResult is the comparison of a current snapshot against a baseline.
type DiffResult struct {
	Added   Snapshot
	Removed Snapshot
	Alert   bool
}

// Compare computes what was added and removed relative to baseline.
// Only additions raise an alert; a closed port is reported but is not a risk event.
//
// Comparing against an empty baseline reports every current service as added, so
// callers must bootstrap a missing baseline instead of comparing against nothing.
func Compare(current, baseline Snapshot) DiffResult {
	added := current.Minus(baseline)
	return DiffResult{
		Added:   added,
		Removed: baseline.Minus(current),
		Alert:   len(added) > 0,
	}
}
