package dedup

import (
	"testing"

	"carvelens/internal/store"
)

func record(id int64, seq int, hash string) *store.FileRecord {
	return &store.FileRecord{ID: id, Seq: seq, Hash: hash, Name: "f", Type: "jpg"}
}

func TestDetectGroupsByHash(t *testing.T) {
	records := []*store.FileRecord{
		record(1, 0, "aaa"),
		record(2, 1, "bbb"),
		record(3, 2, "aaa"),
		record(4, 3, "ccc"),
		record(5, 4, "bbb"),
		record(6, 5, "aaa"),
	}

	groups := Detect(records)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	// Ordered by earliest member sequence: "aaa" (seq 0) before "bbb" (seq 1).
	if groups[0].Hash != "aaa" || groups[1].Hash != "bbb" {
		t.Fatalf("group order = %q, %q", groups[0].Hash, groups[1].Hash)
	}
	if ids := groups[0].FileIDs(); len(ids) != 3 || ids[0] != 1 || ids[1] != 3 || ids[2] != 6 {
		t.Fatalf("aaa members = %v", ids)
	}
	if ids := groups[1].FileIDs(); len(ids) != 2 || ids[0] != 2 || ids[1] != 5 {
		t.Fatalf("bbb members = %v", ids)
	}
}

func TestDetectSkipsUnhashedRecords(t *testing.T) {
	records := []*store.FileRecord{
		record(1, 0, ""),
		record(2, 1, ""),
		record(3, 2, "xyz"),
	}
	if groups := Detect(records); len(groups) != 0 {
		t.Fatalf("unhashed records formed groups: %v", groups)
	}
}

func TestDetectSingletonsFormNoGroup(t *testing.T) {
	records := []*store.FileRecord{
		record(1, 0, "aaa"),
		record(2, 1, "bbb"),
	}
	if groups := Detect(records); len(groups) != 0 {
		t.Fatalf("singletons formed groups: %v", groups)
	}
}

func TestDetectMemberOrderIndependentOfInput(t *testing.T) {
	shuffled := []*store.FileRecord{
		record(6, 5, "aaa"),
		record(1, 0, "aaa"),
		record(3, 2, "aaa"),
	}
	groups := Detect(shuffled)
	if len(groups) != 1 {
		t.Fatalf("groups = %d", len(groups))
	}
	ids := groups[0].FileIDs()
	if ids[0] != 1 || ids[1] != 3 || ids[2] != 6 {
		t.Fatalf("members not in sequence order: %v", ids)
	}
}

func TestDetectEmptyInput(t *testing.T) {
	if groups := Detect(nil); len(groups) != 0 {
		t.Fatalf("groups = %v", groups)
	}
}
