package descriptor

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/ZanzyTHEbar/assert-lib"
)

// Builder assembles a Descriptor. The format decoder and test fixtures are
// its only intended users; a built descriptor is frozen and safe to share.
//
// Methods record misuse instead of failing fast; Build reports everything
// collected along the way.
type Builder struct {
	desc          *Descriptor
	AssertHandler *assert.AssertHandler
	errs          []error
	inCluster     bool
}

// NewBuilder starts a descriptor for the named dataset. The anonymous root
// field (field zero) is created implicitly.
func NewBuilder(name string) *Builder {
	b := &Builder{
		desc: &Descriptor{
			name: name,
			fields: []FieldDescriptor{{
				id:       0,
				parentID: InvalidID,
			}},
		},
		AssertHandler: assert.NewAssertHandler(),
	}
	return b
}

// AddField appends a field under the given parent and returns its id.
// Top-level fields use the root id (0) as parent.
func (b *Builder) AddField(name, typeName string, parentID uint64) uint64 {
	id := uint64(len(b.desc.fields))
	if parentID >= id {
		b.errs = append(b.errs, fmt.Errorf("field %q: parent id %d does not exist yet", name, parentID))
		return InvalidID
	}
	b.desc.fields = append(b.desc.fields, FieldDescriptor{
		id:       id,
		name:     name,
		typeName: typeName,
		parentID: parentID,
	})
	b.desc.fields[parentID].children = append(b.desc.fields[parentID].children, id)
	return id
}

// AddColumn appends a physical column owned by the given field and returns
// its id. All physical columns must be added before the first alias column.
func (b *Builder) AddColumn(typ ColumnType, fieldID uint64) uint64 {
	id := uint64(len(b.desc.columns))
	if id != b.desc.nPhysical {
		b.errs = append(b.errs, fmt.Errorf("column %d: physical columns must precede alias columns", id))
		return InvalidID
	}
	if fieldID >= uint64(len(b.desc.fields)) {
		b.errs = append(b.errs, fmt.Errorf("column %d: owning field %d does not exist", id, fieldID))
		return InvalidID
	}
	b.appendColumn(ColumnDescriptor{
		logicalID:  id,
		physicalID: id,
		typ:        typ,
		fieldID:    fieldID,
	})
	b.desc.nPhysical++
	return id
}

// AddAliasColumn appends an alias column referencing an existing physical
// column's storage, owned by the given field. Alias columns never contribute
// to byte accounting.
func (b *Builder) AddAliasColumn(physicalID, fieldID uint64) uint64 {
	id := uint64(len(b.desc.columns))
	if physicalID >= b.desc.nPhysical {
		b.errs = append(b.errs, fmt.Errorf("alias column %d: physical column %d does not exist", id, physicalID))
		return InvalidID
	}
	if fieldID >= uint64(len(b.desc.fields)) {
		b.errs = append(b.errs, fmt.Errorf("alias column %d: owning field %d does not exist", id, fieldID))
		return InvalidID
	}
	b.appendColumn(ColumnDescriptor{
		logicalID:  id,
		physicalID: physicalID,
		typ:        b.desc.columns[physicalID].typ,
		fieldID:    fieldID,
	})
	return id
}

func (b *Builder) appendColumn(col ColumnDescriptor) {
	col.index = uint32(len(b.desc.fields[col.fieldID].columns))
	b.desc.columns = append(b.desc.columns, col)
	b.desc.fields[col.fieldID].columns = append(b.desc.fields[col.fieldID].columns, col.logicalID)
}

// BeginCluster opens a new cluster covering [firstEntry, firstEntry+nEntries).
func (b *Builder) BeginCluster(firstEntry, nEntries uint64) *Builder {
	b.desc.clusters = append(b.desc.clusters, ClusterDescriptor{
		id:           uint64(len(b.desc.clusters)),
		firstEntry:   firstEntry,
		nEntries:     nEntries,
		columns:      roaring.New(),
		columnRanges: make(map[uint64]ColumnRange),
		pageRanges:   make(map[uint64]PageRange),
	})
	b.inCluster = true
	return b
}

// AddClusterColumn attaches a column range and its page list to the cluster
// opened by the last BeginCluster call.
func (b *Builder) AddClusterColumn(physicalColumnID, firstElement, nElements uint64, compressionSettings int32, pages []PageInfo) *Builder {
	if !b.inCluster {
		b.errs = append(b.errs, fmt.Errorf("column range for %d added before BeginCluster", physicalColumnID))
		return b
	}
	if physicalColumnID >= b.desc.nPhysical {
		b.errs = append(b.errs, fmt.Errorf("cluster %d: unknown physical column %d", len(b.desc.clusters)-1, physicalColumnID))
		return b
	}
	cluster := &b.desc.clusters[len(b.desc.clusters)-1]
	if cluster.ContainsColumn(physicalColumnID) {
		b.errs = append(b.errs, fmt.Errorf("cluster %d: duplicate column range for %d", cluster.id, physicalColumnID))
		return b
	}
	cluster.columns.Add(uint32(physicalColumnID))
	cluster.columnRanges[physicalColumnID] = ColumnRange{
		PhysicalColumnID:    physicalColumnID,
		FirstElement:        firstElement,
		NElements:           nElements,
		CompressionSettings: compressionSettings,
	}
	pagesCopy := make([]PageInfo, len(pages))
	copy(pagesCopy, pages)
	cluster.pageRanges[physicalColumnID] = PageRange{
		PhysicalColumnID: physicalColumnID,
		Pages:            pagesCopy,
	}
	return b
}

// Build validates the assembled descriptor, freezes it and returns it. The
// builder must not be reused afterwards.
func (b *Builder) Build() (*Descriptor, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("invalid descriptor %q: %w", b.desc.name, errors.Join(b.errs...))
	}

	b.desc.qualified = make([]string, len(b.desc.fields))
	for id := uint64(1); id < uint64(len(b.desc.fields)); id++ {
		f := b.desc.fields[id]
		if f.parentID == 0 {
			b.desc.qualified[id] = f.name
		} else {
			b.desc.qualified[id] = b.desc.qualified[f.parentID] + "." + f.name
		}
	}
	b.desc.nameIndex = buildNameIndex(b.desc)

	desc := b.desc
	b.desc = nil
	return desc, nil
}
