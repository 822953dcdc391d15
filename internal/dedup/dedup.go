// Package dedup finds carved files with identical content within a session.
// Grouping is by exact content hash; files whose hashing failed carry no
// hash and never join a group.
package dedup

import (
	"sort"

	"carvelens/internal/store"
)

// Group is one set of two or more file records sharing a content hash.
// Members are ordered by carve sequence number.
type Group struct {
	Hash    string
	Members []*store.FileRecord
}

// FileIDs returns the member identifiers in member order, the shape the
// persistence layer records.
func (g Group) FileIDs() []int64 {
	ids := make([]int64, len(g.Members))
	for i, member := range g.Members {
		ids[i] = member.ID
	}
	return ids
}

// Detect partitions the records by content hash and returns every partition
// with at least two members. Records with an empty hash are skipped. Groups
// are ordered by the sequence number of their earliest member, so output is
// deterministic for a given input set.
func Detect(records []*store.FileRecord) []Group {
	byHash := make(map[string][]*store.FileRecord)
	for _, record := range records {
		if record == nil || record.Hash == "" {
			continue
		}
		byHash[record.Hash] = append(byHash[record.Hash], record)
	}

	groups := make([]Group, 0, len(byHash))
	for hash, members := range byHash {
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Seq != members[j].Seq {
				return members[i].Seq < members[j].Seq
			}
			return members[i].ID < members[j].ID
		})
		groups = append(groups, Group{Hash: hash, Members: members})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Members[0].Seq < groups[j].Members[0].Seq
	})
	return groups
}
