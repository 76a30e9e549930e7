package reconcile

import "testing"

type fakeRepr struct {
	id string
}

func (f fakeRepr) GetStringID() string { return f.id }

type fakeAsset struct {
	id    string
	value int
}

func TestPartitionDiff_AllNew(t *testing.T) {
	existing := map[string]fakeAsset{}
	reprs := []fakeRepr{{id: "a"}, {id: "b"}}

	toInsert, toUpdate, toDelete := PartitionDiff[fakeRepr, fakeAsset](existing, reprs)

	if len(toInsert) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(toInsert))
	}
	if len(toUpdate) != 0 || len(toDelete) != 0 {
		t.Fatalf("expected no updates/deletes, got %d/%d", len(toUpdate), len(toDelete))
	}
}

func TestPartitionDiff_AllRemoved(t *testing.T) {
	existing := map[string]fakeAsset{"a": {id: "a"}, "b": {id: "b"}}
	reprs := []fakeRepr{}

	toInsert, toUpdate, toDelete := PartitionDiff[fakeRepr, fakeAsset](existing, reprs)

	if len(toInsert) != 0 || len(toUpdate) != 0 {
		t.Fatalf("expected no inserts/updates, got %d/%d", len(toInsert), len(toUpdate))
	}
	if len(toDelete) != 2 {
		t.Fatalf("expected 2 deletes, got %d", len(toDelete))
	}
}

func TestPartitionDiff_MixOfAllThree(t *testing.T) {
	existing := map[string]fakeAsset{
		"keep":   {id: "keep", value: 1},
		"remove": {id: "remove", value: 2},
	}
	reprs := []fakeRepr{{id: "keep"}, {id: "new"}}

	toInsert, toUpdate, toDelete := PartitionDiff[fakeRepr, fakeAsset](existing, reprs)

	if len(toInsert) != 1 || toInsert[0].id != "new" {
		t.Fatalf("expected 1 insert of 'new', got %+v", toInsert)
	}
	if len(toUpdate) != 1 || toUpdate[0].Asset.id != "keep" {
		t.Fatalf("expected 1 update pairing 'keep', got %+v", toUpdate)
	}
	if len(toDelete) != 1 || toDelete[0].id != "remove" {
		t.Fatalf("expected 1 delete of 'remove', got %+v", toDelete)
	}
}

func TestPartitionDiff_EveryAssetAccountedForExactlyOnce(t *testing.T) {
	existing := map[string]fakeAsset{"a": {id: "a"}, "b": {id: "b"}, "c": {id: "c"}}
	reprs := []fakeRepr{{id: "a"}, {id: "d"}}

	_, toUpdate, toDelete := PartitionDiff[fakeRepr, fakeAsset](existing, reprs)

	seen := map[string]bool{}
	for _, p := range toUpdate {
		seen[p.Asset.id] = true
	}
	for _, a := range toDelete {
		if seen[a.id] {
			t.Fatalf("asset %q appeared in both toUpdate and toDelete", a.id)
		}
		seen[a.id] = true
	}
	if len(seen) != len(existing) {
		t.Fatalf("expected every existing asset accounted for, got %d of %d", len(seen), len(existing))
	}
}

func TestDuplicates_None(t *testing.T) {
	reprs := []fakeRepr{{id: "a"}, {id: "b"}}
	if d := Duplicates(reprs); len(d) != 0 {
		t.Fatalf("expected no duplicates, got %v", d)
	}
}

func TestDuplicates_FindsRepeatedIdentity(t *testing.T) {
	reprs := []fakeRepr{{id: "a"}, {id: "b"}, {id: "a"}, {id: "a"}}
	d := Duplicates(reprs)
	if len(d) != 1 || d[0] != "a" {
		t.Fatalf("expected single duplicate 'a', got %v", d)
	}
}
