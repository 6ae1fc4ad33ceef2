// Package inspect walks a dataset's descriptor and reports structural
// statistics about it: per-column and per-field byte footprints, element
// counts, type distributions and compression-setting consistency. All
// collection happens once, eagerly, at construction; an Inspector is
// immutable afterwards and safe for concurrent readers.
package inspect

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/descriptor"
	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/format"
)

// Inspector is the statistics engine for one dataset. It works on a cloned
// descriptor snapshot, so later changes to the live source cannot invalidate
// its report.
type Inspector struct {
	id         uuid.UUID
	pageSource *format.PageSource
	sourceFile *format.File
	desc       *descriptor.Descriptor
	logger     *slog.Logger

	onDiskSize          uint64
	inMemorySize        uint64
	compressionSettings int32

	columnInfo map[uint64]ColumnInfo
	fieldInfo  map[uint64]FieldTreeInfo
}

// Option allows for customization of an Inspector
type Option func(*Inspector)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(in *Inspector) {
		in.logger = logger
	}
}

// New builds an inspector from an already-made page source. Ownership of the
// source transfers to the inspector; it is released by Close.
func New(src *format.PageSource, opts ...Option) (*Inspector, error) {
	if src == nil {
		return nil, fmt.Errorf("provided page source is nil")
	}
	if err := src.Attach(); err != nil {
		return nil, fmt.Errorf("failed to attach page source: %w", err)
	}

	in := &Inspector{
		id:                  uuid.New(),
		pageSource:          src,
		desc:                src.SharedDescriptor().Clone(),
		logger:              slog.Default(),
		compressionSettings: -1,
		columnInfo:          make(map[uint64]ColumnInfo),
		fieldInfo:           make(map[uint64]FieldTreeInfo),
	}
	for _, opt := range opts {
		opt(in)
	}

	if err := in.collectColumnInfo(); err != nil {
		return nil, err
	}
	in.collectFieldTreeInfo(in.desc.FieldZeroID())

	in.logger.Debug("dataset inspected",
		"inspection_id", in.id,
		"dataset", in.desc.Name(),
		"on_disk_size", in.onDiskSize,
		"in_memory_size", in.inMemorySize)
	return in, nil
}

// NewFromDataset builds an inspector from a dataset handle by manufacturing
// a page source internally. The container file stays owned by the caller.
func NewFromDataset(ds *format.Dataset, opts ...Option) (*Inspector, error) {
	if ds == nil {
		return nil, fmt.Errorf("provided dataset is nil")
	}
	src, err := ds.MakePageSource()
	if err != nil {
		return nil, fmt.Errorf("failed to make page source for %q: %w", ds.Name(), err)
	}
	return New(src, opts...)
}

// NewFromFile opens the container file at path, looks up the named dataset
// and builds an inspector for it. The inspector keeps ownership of the opened
// file for its own lifetime; Close releases it.
func NewFromFile(datasetName, path string, opts ...Option) (*Inspector, error) {
	file, err := format.Open(path)
	if err != nil {
		return nil, err
	}
	ds, err := file.Dataset(datasetName)
	if err != nil {
		file.Close()
		return nil, err
	}
	in, err := NewFromDataset(ds, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}
	in.sourceFile = file
	return in, nil
}

// Close releases the page source and, when the inspector opened its own
// container file, that file as well.
func (in *Inspector) Close() error {
	if in.pageSource != nil {
		in.pageSource.Close()
		in.pageSource = nil
	}
	if in.sourceFile != nil {
		err := in.sourceFile.Close()
		in.sourceFile = nil
		return err
	}
	return nil
}

// collectColumnInfo produces one statistics record per physical column and,
// as a byproduct of the same traversal, the dataset-wide size totals and the
// global compression settings.
func (in *Inspector) collectColumnInfo() error {
	in.onDiskSize = 0
	in.inMemorySize = 0

	for colID := uint64(0); colID < in.desc.NPhysicalColumns(); colID++ {
		colDesc, _ := in.desc.Column(colID)

		// The element size reflects the default in-memory representation of
		// the column type, not anything stored on disk.
		elemSize := colDesc.Type().ElementSize()
		var nElems, onDiskSize uint64

		clusters := in.desc.Clusters()
		for i := range clusters {
			cluster := &clusters[i]
			if !cluster.ContainsColumn(colID) {
				continue
			}

			columnRange, _ := cluster.ColumnRange(colID)
			nElems += columnRange.NElements

			if in.compressionSettings == -1 {
				in.compressionSettings = columnRange.CompressionSettings
			} else if columnRange.CompressionSettings != in.compressionSettings {
				return fmt.Errorf("cluster %d, column %d has settings %d, first observed %d: %w",
					cluster.ID(), colID, columnRange.CompressionSettings, in.compressionSettings,
					ErrCompressionSettingsMismatch)
			}

			pageRange, _ := cluster.PageRange(colID)
			for _, page := range pageRange.Pages {
				onDiskSize += page.Locator.BytesOnStorage
				in.onDiskSize += page.Locator.BytesOnStorage
				in.inMemorySize += page.NElements * elemSize
			}
		}

		in.columnInfo[colID] = ColumnInfo{
			desc:        colDesc,
			onDiskSize:  onDiskSize,
			elementSize: elemSize,
			nElements:   nElems,
		}
	}
	return nil
}

// collectFieldTreeInfo aggregates column statistics over the subtree rooted
// at fieldID, postorder, memoizing per field id on the way up.
func (in *Inspector) collectFieldTreeInfo(fieldID uint64) FieldTreeInfo {
	var onDiskSize, inMemSize uint64

	fieldDesc, _ := in.desc.Field(fieldID)

	for _, colID := range fieldDesc.Columns() {
		colDesc, _ := in.desc.Column(colID)
		if colDesc.IsAlias() {
			// Alias columns reference another column's storage; counting them
			// would double the referenced bytes.
			continue
		}
		colInfo := in.columnInfo[colDesc.PhysicalID()]
		onDiskSize += colInfo.OnDiskSize()
		inMemSize += colInfo.InMemorySize()
	}

	for _, subFieldID := range fieldDesc.Children() {
		subFieldInfo := in.collectFieldTreeInfo(subFieldID)
		onDiskSize += subFieldInfo.OnDiskSize()
		inMemSize += subFieldInfo.InMemorySize()
	}

	fieldInfo := FieldTreeInfo{
		desc:         fieldDesc,
		onDiskSize:   onDiskSize,
		inMemorySize: inMemSize,
	}
	in.fieldInfo[fieldID] = fieldInfo
	return fieldInfo
}

// ID returns the unique id of this inspection run.
func (in *Inspector) ID() uuid.UUID { return in.id }

// Descriptor returns the inspector's own cloned snapshot.
func (in *Inspector) Descriptor() *descriptor.Descriptor { return in.desc }

// OnDiskSize returns the compressed byte footprint of the whole dataset,
// summed over all physical columns.
func (in *Inspector) OnDiskSize() uint64 { return in.onDiskSize }

// InMemorySize returns the expanded byte footprint of the whole dataset.
func (in *Inspector) InMemorySize() uint64 { return in.inMemorySize }

// CompressionSettings returns the single compression setting observed across
// the dataset, or -1 when no cluster holds any column data.
func (in *Inspector) CompressionSettings() int32 { return in.compressionSettings }

// NPhysicalColumns returns the number of physical columns in the snapshot.
func (in *Inspector) NPhysicalColumns() uint64 { return in.desc.NPhysicalColumns() }

// GetColumnInfo returns the statistics of the physical column with the given
// id.
func (in *Inspector) GetColumnInfo(physicalColumnID uint64) (ColumnInfo, error) {
	info, ok := in.columnInfo[physicalColumnID]
	if !ok {
		return ColumnInfo{}, fmt.Errorf("physical id %d: %w", physicalColumnID, ErrColumnNotFound)
	}
	return info, nil
}

// ColumnInfos returns the statistics of every physical column in id order.
func (in *Inspector) ColumnInfos() []ColumnInfo {
	infos := make([]ColumnInfo, 0, len(in.columnInfo))
	for colID := uint64(0); colID < in.desc.NPhysicalColumns(); colID++ {
		infos = append(infos, in.columnInfo[colID])
	}
	return infos
}

// GetFieldTreeInfo returns the aggregated subtree statistics of the field
// with the given id.
func (in *Inspector) GetFieldTreeInfo(fieldID uint64) (FieldTreeInfo, error) {
	if fieldID >= in.desc.NFields() {
		return FieldTreeInfo{}, fmt.Errorf("field id %d: %w", fieldID, ErrFieldNotFound)
	}
	return in.fieldInfo[fieldID], nil
}

// GetFieldTreeInfoByName resolves a qualified field name through the
// snapshot's name index and returns the field's subtree statistics.
func (in *Inspector) GetFieldTreeInfoByName(fieldName string) (FieldTreeInfo, error) {
	fieldID, ok := in.desc.FindFieldID(fieldName)
	if !ok {
		return FieldTreeInfo{}, fmt.Errorf("field %q: %w", fieldName, ErrFieldNotFound)
	}
	return in.GetFieldTreeInfo(fieldID)
}

// GetFieldTypeCount counts the fields whose declared type name matches
// typeName. With includeSubFields false only direct children of the root are
// considered; otherwise the whole tree is.
func (in *Inspector) GetFieldTypeCount(typeName string, includeSubFields bool) int {
	typeCount := 0
	for _, fieldInfo := range in.fieldInfo {
		if !includeSubFields && fieldInfo.desc.ParentID() != in.desc.FieldZeroID() {
			continue
		}
		if typeName == fieldInfo.desc.TypeName() {
			typeCount++
		}
	}
	return typeCount
}

// GetColumnTypeCount counts the physical columns whose on-disk type tag
// equals colType.
func (in *Inspector) GetColumnTypeCount(colType descriptor.ColumnType) int {
	typeCount := 0
	for _, colInfo := range in.columnInfo {
		if colInfo.Type() == colType {
			typeCount++
		}
	}
	return typeCount
}

// GetColumnsByFieldTree gathers the physical ids of every non-alias column
// beneath the given field, breadth-first. Ordering carries no meaning.
func (in *Inspector) GetColumnsByFieldTree(fieldID uint64) ([]uint64, error) {
	if fieldID >= in.desc.NFields() {
		return nil, fmt.Errorf("field id %d: %w", fieldID, ErrFieldNotFound)
	}

	var colIDs []uint64
	queue := []uint64{fieldID}

	for len(queue) > 0 {
		currID := queue[0]
		queue = queue[1:]

		fieldDesc, _ := in.desc.Field(currID)
		for _, colID := range fieldDesc.Columns() {
			colDesc, _ := in.desc.Column(colID)
			if colDesc.IsAlias() {
				continue
			}
			colIDs = append(colIDs, colDesc.PhysicalID())
		}
		queue = append(queue, fieldDesc.Children()...)
	}

	return colIDs, nil
}
