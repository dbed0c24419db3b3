package engine

import "sort"

// Snapshot is the set of open services observed in a single report.
type Snapshot map[ServiceID]struct{}

// NewSnapshot returns a snapshot holding ids. Duplicates collapse.
func NewSnapshot(ids ...ServiceID) Snapshot {
	s := make(Snapshot, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the snapshot.
func (s Snapshot) Add(id ServiceID) {
	s[id] = struct{}{}
}

// Contains reports whether id is in the snapshot.
func (s Snapshot) Contains(id ServiceID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of services.
func (s Snapshot) Len() int {
	return len(s)
}

// Minus returns the services in s that are not in other.
func (s Snapshot) Minus(other Snapshot) Snapshot {
	out := make(Snapshot)
	for id := range s {
		if !other.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both snapshots hold exactly the same services.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Sorted lists the services ordered by port, then service name.
func (s Snapshot) Sorted() []ServiceID {
	ids := make([]ServiceID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Port != ids[j].Port {
			return ids[i].Port < ids[j].Port
		}
		return ids[i].Service < ids[j].Service
	})
	return ids
}

// Strings returns the sorted "<port>/<service>" forms.
func (s Snapshot) Strings() []string {
	ids := s.Sorted()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
