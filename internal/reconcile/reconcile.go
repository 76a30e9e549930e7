// Package reconcile implements the type-parametric diff at the heart of
// System Sync: given the desired-state representations a client sent
// and the existing rows for an asset group, it partitions the reprs
// into what needs to be inserted or updated, and what
// existing rows need to be deleted because nothing referenced them.
package reconcile

// Identified is any desired-state representation whose identity within
// an asset group is a single string (a service's address, a config's
// name).
type Identified interface {
	GetStringID() string
}

// Pair couples an incoming representation with the existing row it
// matched, so the caller can merge and then issue an UPDATE.
type Pair[R Identified, A any] struct {
	Repr  R
	Asset A
}

// PartitionDiff splits reprs into three buckets relative to existing,
// a map of currently persisted rows keyed by the same string identity
// reprs use:
//
//   - toInsert: reprs whose identity has no match in existing.
//   - toUpdate: reprs whose identity matches an existing row, paired
//     with that row so the caller can merge fields onto it.
//   - toDelete: existing rows whose identity was not claimed by any
//     repr.
//
// Every row in existing ends up in exactly one of toUpdate or toDelete;
// every repr ends up in exactly one of toInsert or toUpdate. Two reprs
// sharing one identity is the caller's responsibility to reject before
// calling PartitionDiff — this function only ever matches a given
// existing row once, so a later repr with an already-matched identity
// silently lands in toInsert.
func PartitionDiff[R Identified, A any](existing map[string]A, reprs []R) (toInsert []R, toUpdate []Pair[R, A], toDelete []A) {
	remaining := make(map[string]A, len(existing))
	for k, v := range existing {
		remaining[k] = v
	}

	for _, repr := range reprs {
		id := repr.GetStringID()
		if asset, ok := remaining[id]; ok {
			toUpdate = append(toUpdate, Pair[R, A]{Repr: repr, Asset: asset})
			delete(remaining, id)
		} else {
			toInsert = append(toInsert, repr)
		}
	}

	for _, asset := range remaining {
		toDelete = append(toDelete, asset)
	}
	return toInsert, toUpdate, toDelete
}

// Duplicates returns the set of identities that appear more than once
// in reprs, in first-seen order. System Sync calls this ahead of
// PartitionDiff and rejects the whole request with a SyncDuplicate
// error if it's non-empty, since PartitionDiff itself has no way to
// signal that a desired-state document named the same service or
// config twice.
func Duplicates[R Identified](reprs []R) []string {
	seen := make(map[string]bool, len(reprs))
	var dupes []string
	dupeSeen := make(map[string]bool)
	for _, repr := range reprs {
		id := repr.GetStringID()
		if seen[id] {
			if !dupeSeen[id] {
				dupes = append(dupes, id)
				dupeSeen[id] = true
			}
			continue
		}
		seen[id] = true
	}
	return dupes
}
