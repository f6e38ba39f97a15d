// Package diff compares two MeDF documents block by block using the block
// hashes they already carry. It never hashes text itself: two unhashed
// versions of a block compare as unchanged.
package diff

import (
	"sort"

	"github.com/teranos/medf/medf"
)

// Change is a block whose stored hash differs between the two versions.
type Change struct {
	BlockID string `json:"block_id"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

// Result lists block ids by classification, each sorted.
type Result struct {
	Changed   []Change `json:"changed"`
	Unchanged []string `json:"unchanged"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
}

// Empty reports whether the two versions have the same blocks with the same
// known hashes.
func (r *Result) Empty() bool {
	return len(r.Changed) == 0 && len(r.Added) == 0 && len(r.Removed) == 0
}

// Compare classifies every block id in the union of oldDoc and newDoc.
func Compare(oldDoc, newDoc *medf.Document) *Result {
	before := index(oldDoc)
	after := index(newDoc)

	res := &Result{
		Changed:   []Change{},
		Unchanged: []string{},
		Added:     []string{},
		Removed:   []string{},
	}

	for _, id := range union(before, after) {
		b, inOld := before[id]
		a, inNew := after[id]

		switch {
		case inOld && !inNew:
			res.Removed = append(res.Removed, id)
		case !inOld && inNew:
			res.Added = append(res.Added, id)
		case known(b) && known(a) && b.Hash.Value != a.Hash.Value:
			res.Changed = append(res.Changed, Change{BlockID: id, Before: b.Hash.Value, After: a.Hash.Value})
		default:
			res.Unchanged = append(res.Unchanged, id)
		}
	}
	return res
}

// index maps block id to block. Later duplicates overwrite earlier ones;
// documents loaded through medf.Parse never contain duplicates.
func index(doc *medf.Document) map[string]*medf.Block {
	m := make(map[string]*medf.Block, len(doc.Blocks))
	for i := range doc.Blocks {
		m[doc.Blocks[i].ID] = &doc.Blocks[i]
	}
	return m
}

func union(a, b map[string]*medf.Block) []string {
	ids := make([]string, 0, len(a)+len(b))
	for id := range a {
		ids = append(ids, id)
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func known(b *medf.Block) bool {
	return b.Hash != nil && b.Hash.Value != ""
}
