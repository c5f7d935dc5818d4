package staging

import "sort"

// BaselineEntry records the observed state of one production path. For a
// path that does not exist, Exists is false and MTime/Size are zero.
type BaselineEntry struct {
	Exists bool
	MTime  int64 // unix nanoseconds; 0 when absent
	Size   int64 // bytes; 0 when absent
}

// Equal reports whether two observations of the same path match.
func (b BaselineEntry) Equal(o BaselineEntry) bool {
	if b.Exists != o.Exists {
		return false
	}
	if !b.Exists {
		return true
	}
	return b.MTime == o.MTime && b.Size == o.Size
}

// DiffBaseline compares the baseline captured at session start against the
// current observations of the same paths and returns the conflicting paths
// in sorted order. An empty result means no conflicts. Paths present in the
// baseline but missing from current are treated as conflicts only when the
// baseline recorded them as existing (re-stat of an absent path yields a
// non-existing entry, not a missing map key).
func DiffBaseline(baseline, current map[string]BaselineEntry) []string {
	var conflicts []string
	for path, recorded := range baseline {
		now, ok := current[path]
		if !ok {
			now = BaselineEntry{}
		}
		if !recorded.Equal(now) {
			conflicts = append(conflicts, path)
		}
	}
	sort.Strings(conflicts)
	return conflicts
}
