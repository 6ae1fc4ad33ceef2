// Package descriptor models an immutable, point-in-time view of a columnar
// dataset: its field tree, its physical and alias columns, and the per-cluster
// byte/element ranges with page locators. Descriptors are assembled through a
// Builder and never mutated afterwards.
package descriptor

import (
	"github.com/RoaringBitmap/roaring"
)

// InvalidID marks the absence of a field or column id. The root field's
// parent carries it.
const InvalidID = ^uint64(0)

// Locator points at a page's storage without reading it. BytesOnStorage is
// the compressed on-disk footprint of the page.
type Locator struct {
	Position       uint64
	BytesOnStorage uint64
}

// PageInfo describes one page of a column within a cluster.
type PageInfo struct {
	NElements uint64
	Locator   Locator
}

// ColumnRange is the element range a cluster holds for one physical column.
type ColumnRange struct {
	PhysicalColumnID    uint64
	FirstElement        uint64
	NElements           uint64
	CompressionSettings int32
}

// PageRange lists the pages backing a column range, in storage order.
type PageRange struct {
	PhysicalColumnID uint64
	Pages            []PageInfo
}

// FieldDescriptor is a named, typed node in the dataset's schema tree.
// Field id 0 is the anonymous root ("field zero").
type FieldDescriptor struct {
	id       uint64
	name     string
	typeName string
	parentID uint64
	children []uint64
	columns  []uint64
}

func (f FieldDescriptor) ID() uint64       { return f.id }
func (f FieldDescriptor) Name() string     { return f.name }
func (f FieldDescriptor) TypeName() string { return f.typeName }
func (f FieldDescriptor) ParentID() uint64 { return f.parentID }

// Children returns the ids of the direct subfields. The returned slice is
// shared with the descriptor and must not be modified.
func (f FieldDescriptor) Children() []uint64 { return f.children }

// Columns returns the logical ids of the columns directly owned by this
// field, alias columns included. The returned slice must not be modified.
func (f FieldDescriptor) Columns() []uint64 { return f.columns }

// ColumnDescriptor describes one column. A physical column owns its own
// storage and has PhysicalID == LogicalID; an alias column references another
// column's storage under a different logical id.
type ColumnDescriptor struct {
	logicalID  uint64
	physicalID uint64
	typ        ColumnType
	fieldID    uint64
	index      uint32
}

func (c ColumnDescriptor) LogicalID() uint64  { return c.logicalID }
func (c ColumnDescriptor) PhysicalID() uint64 { return c.physicalID }
func (c ColumnDescriptor) Type() ColumnType   { return c.typ }
func (c ColumnDescriptor) FieldID() uint64    { return c.fieldID }
func (c ColumnDescriptor) Index() uint32      { return c.index }
func (c ColumnDescriptor) IsAlias() bool      { return c.logicalID != c.physicalID }

// ClusterDescriptor is a contiguous, independently addressable batch of rows.
// Column membership is kept as a roaring bitmap of physical column ids so
// ContainsColumn is a cheap probe even for wide datasets.
type ClusterDescriptor struct {
	id           uint64
	firstEntry   uint64
	nEntries     uint64
	columns      *roaring.Bitmap
	columnRanges map[uint64]ColumnRange
	pageRanges   map[uint64]PageRange
}

func (c *ClusterDescriptor) ID() uint64         { return c.id }
func (c *ClusterDescriptor) FirstEntry() uint64 { return c.firstEntry }
func (c *ClusterDescriptor) NEntries() uint64   { return c.nEntries }

// ContainsColumn reports whether this cluster holds data for the given
// physical column.
func (c *ClusterDescriptor) ContainsColumn(physicalColumnID uint64) bool {
	return c.columns.Contains(uint32(physicalColumnID))
}

// ColumnRange returns the element range for a physical column, if present.
func (c *ClusterDescriptor) ColumnRange(physicalColumnID uint64) (ColumnRange, bool) {
	r, ok := c.columnRanges[physicalColumnID]
	return r, ok
}

// PageRange returns the page list for a physical column, if present.
func (c *ClusterDescriptor) PageRange(physicalColumnID uint64) (PageRange, bool) {
	r, ok := c.pageRanges[physicalColumnID]
	return r, ok
}

// ColumnIDs returns the physical column ids present in this cluster in
// ascending order.
func (c *ClusterDescriptor) ColumnIDs() []uint64 {
	ids := make([]uint64, 0, c.columns.GetCardinality())
	it := c.columns.Iterator()
	for it.HasNext() {
		ids = append(ids, uint64(it.Next()))
	}
	return ids
}

// Descriptor is the immutable snapshot of a dataset's schema and storage
// layout. Physical columns occupy logical ids [0, NPhysicalColumns); alias
// columns follow.
type Descriptor struct {
	name      string
	fields    []FieldDescriptor
	columns   []ColumnDescriptor
	nPhysical uint64
	clusters  []ClusterDescriptor
	nameIndex *FieldNameIndex
	qualified []string
}

func (d *Descriptor) Name() string { return d.name }

// FieldZeroID returns the id of the schema tree's root field.
func (d *Descriptor) FieldZeroID() uint64 { return 0 }

func (d *Descriptor) NFields() uint64          { return uint64(len(d.fields)) }
func (d *Descriptor) NColumns() uint64         { return uint64(len(d.columns)) }
func (d *Descriptor) NPhysicalColumns() uint64 { return d.nPhysical }
func (d *Descriptor) NClusters() uint64        { return uint64(len(d.clusters)) }

// Field returns the field descriptor for the given id.
func (d *Descriptor) Field(fieldID uint64) (FieldDescriptor, bool) {
	if fieldID >= uint64(len(d.fields)) {
		return FieldDescriptor{}, false
	}
	return d.fields[fieldID], true
}

// Column returns the column descriptor for the given logical id. Physical
// columns are addressed by the same value as their physical id.
func (d *Descriptor) Column(columnID uint64) (ColumnDescriptor, bool) {
	if columnID >= uint64(len(d.columns)) {
		return ColumnDescriptor{}, false
	}
	return d.columns[columnID], true
}

// Clusters returns the cluster descriptors in entry order. The returned slice
// is shared with the descriptor and must not be modified.
func (d *Descriptor) Clusters() []ClusterDescriptor { return d.clusters }

// FindFieldID resolves a dotted qualified field name ("event.hits.energy")
// to its field id.
func (d *Descriptor) FindFieldID(qualifiedName string) (uint64, bool) {
	return d.nameIndex.Lookup(qualifiedName)
}

// QualifiedFieldName returns the dotted path of a field from the root, or ""
// for field zero itself.
func (d *Descriptor) QualifiedFieldName(fieldID uint64) string {
	if fieldID >= uint64(len(d.qualified)) {
		return ""
	}
	return d.qualified[fieldID]
}

// Clone returns a deep, independent copy of the descriptor. Engines clone at
// construction so later mutation of the live source cannot invalidate them.
func (d *Descriptor) Clone() *Descriptor {
	out := &Descriptor{
		name:      d.name,
		fields:    make([]FieldDescriptor, len(d.fields)),
		columns:   make([]ColumnDescriptor, len(d.columns)),
		nPhysical: d.nPhysical,
		clusters:  make([]ClusterDescriptor, len(d.clusters)),
		qualified: make([]string, len(d.qualified)),
	}
	copy(out.columns, d.columns)
	copy(out.qualified, d.qualified)

	for i, f := range d.fields {
		nf := f
		nf.children = make([]uint64, len(f.children))
		copy(nf.children, f.children)
		nf.columns = make([]uint64, len(f.columns))
		copy(nf.columns, f.columns)
		out.fields[i] = nf
	}

	for i, c := range d.clusters {
		nc := ClusterDescriptor{
			id:           c.id,
			firstEntry:   c.firstEntry,
			nEntries:     c.nEntries,
			columns:      c.columns.Clone(),
			columnRanges: make(map[uint64]ColumnRange, len(c.columnRanges)),
			pageRanges:   make(map[uint64]PageRange, len(c.pageRanges)),
		}
		for id, r := range c.columnRanges {
			nc.columnRanges[id] = r
		}
		for id, pr := range c.pageRanges {
			npr := PageRange{PhysicalColumnID: pr.PhysicalColumnID, Pages: make([]PageInfo, len(pr.Pages))}
			copy(npr.Pages, pr.Pages)
			nc.pageRanges[id] = npr
		}
		out.clusters[i] = nc
	}

	out.nameIndex = buildNameIndex(out)
	return out
}
