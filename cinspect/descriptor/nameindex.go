package descriptor

import (
	"strings"

	"github.com/armon/go-radix"
)

// FieldNameIndex provides O(k) qualified-name lookups over a descriptor's
// field tree using a compressed trie (patricia tree), where k is the length
// of the name being searched, not the number of fields.
type FieldNameIndex struct {
	tree *radix.Tree
}

// buildNameIndex indexes every field of the descriptor (except the anonymous
// root) under its dotted qualified name.
func buildNameIndex(d *Descriptor) *FieldNameIndex {
	idx := &FieldNameIndex{tree: radix.New()}
	for id := uint64(1); id < uint64(len(d.fields)); id++ {
		idx.tree.Insert(d.qualified[id], id)
	}
	return idx
}

// Lookup finds a field id by its exact qualified name.
func (idx *FieldNameIndex) Lookup(qualifiedName string) (uint64, bool) {
	v, ok := idx.tree.Get(strings.TrimSpace(qualifiedName))
	if !ok {
		return InvalidID, false
	}
	return v.(uint64), true
}

// PrefixLookup returns the ids of all fields whose qualified name starts with
// the given prefix, e.g. "event." for everything below the event field.
func (idx *FieldNameIndex) PrefixLookup(prefix string) []uint64 {
	var ids []uint64
	idx.tree.WalkPrefix(prefix, func(s string, v interface{}) bool {
		ids = append(ids, v.(uint64))
		return false
	})
	return ids
}

// Len returns the number of indexed fields.
func (idx *FieldNameIndex) Len() int { return idx.tree.Len() }
