package inspect

import (
	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/descriptor"
)

// ColumnInfo holds the accumulated statistics of one physical column.
type ColumnInfo struct {
	desc        descriptor.ColumnDescriptor
	onDiskSize  uint64
	elementSize uint64
	nElements   uint64
}

// Descriptor returns the column's descriptor.
func (c ColumnInfo) Descriptor() descriptor.ColumnDescriptor { return c.desc }

// Type returns the column's on-disk element type tag.
func (c ColumnInfo) Type() descriptor.ColumnType { return c.desc.Type() }

// OnDiskSize is the sum of the on-disk byte sizes of every page belonging to
// this column, across all clusters.
func (c ColumnInfo) OnDiskSize() uint64 { return c.onDiskSize }

// ElementSize is the byte size of one element in the default in-memory
// representation of the column's type.
func (c ColumnInfo) ElementSize() uint64 { return c.elementSize }

// NElements is the total element count across all clusters containing this
// column.
func (c ColumnInfo) NElements() uint64 { return c.nElements }

// InMemorySize is the expanded size of the column's data.
func (c ColumnInfo) InMemorySize() uint64 { return c.nElements * c.elementSize }

// FieldTreeInfo holds the aggregated statistics of a field's whole subtree:
// the field's own non-alias columns plus everything below it.
type FieldTreeInfo struct {
	desc         descriptor.FieldDescriptor
	onDiskSize   uint64
	inMemorySize uint64
}

// Descriptor returns the field's descriptor.
func (f FieldTreeInfo) Descriptor() descriptor.FieldDescriptor { return f.desc }

// OnDiskSize is the compressed byte footprint of the field's subtree.
func (f FieldTreeInfo) OnDiskSize() uint64 { return f.onDiskSize }

// InMemorySize is the expanded byte footprint of the field's subtree.
func (f FieldTreeInfo) InMemorySize() uint64 { return f.inMemorySize }
