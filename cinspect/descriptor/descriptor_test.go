package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestDescriptor(t *testing.T) *Descriptor {
	t.Helper()

	b := NewBuilder("events")
	hits := b.AddField("hits", "std::vector<Hit>", 0)
	energy := b.AddField("energy", "float", hits)
	pt := b.AddField("pt", "float", 0)

	hitsIdx := b.AddColumn(ColumnTypeIndex64, hits)
	energyCol := b.AddColumn(ColumnTypeReal32, energy)
	ptCol := b.AddColumn(ColumnTypeReal32, pt)
	b.AddAliasColumn(ptCol, hits)

	b.BeginCluster(0, 100).
		AddClusterColumn(hitsIdx, 0, 100, 505, []PageInfo{{NElements: 100, Locator: Locator{BytesOnStorage: 120}}}).
		AddClusterColumn(energyCol, 0, 250, 505, []PageInfo{{NElements: 250, Locator: Locator{BytesOnStorage: 400}}})
	b.BeginCluster(100, 50).
		AddClusterColumn(hitsIdx, 100, 50, 505, []PageInfo{{NElements: 50, Locator: Locator{BytesOnStorage: 60}}})

	desc, err := b.Build()
	require.NoError(t, err)
	return desc
}

func TestBuilder_FieldTreeWiring(t *testing.T) {
	desc := buildTestDescriptor(t)

	assert.Equal(t, uint64(4), desc.NFields())
	assert.Equal(t, uint64(3), desc.NPhysicalColumns())
	assert.Equal(t, uint64(4), desc.NColumns())

	root, ok := desc.Field(desc.FieldZeroID())
	require.True(t, ok)
	assert.Equal(t, InvalidID, root.ParentID())
	assert.Equal(t, []uint64{1, 3}, root.Children())

	hits, ok := desc.Field(1)
	require.True(t, ok)
	assert.Equal(t, "hits", hits.Name())
	assert.Equal(t, []uint64{2}, hits.Children())
	// owns the index column plus the alias
	assert.Len(t, hits.Columns(), 2)

	alias, ok := desc.Column(3)
	require.True(t, ok)
	assert.True(t, alias.IsAlias())
	assert.Equal(t, uint64(2), alias.PhysicalID())
	assert.Equal(t, ColumnTypeReal32, alias.Type())

	physical, ok := desc.Column(2)
	require.True(t, ok)
	assert.False(t, physical.IsAlias())
}

func TestBuilder_RejectsInvalidInput(t *testing.T) {
	t.Run("unknown parent field", func(t *testing.T) {
		b := NewBuilder("bad")
		b.AddField("x", "float", 42)
		_, err := b.Build()
		require.Error(t, err)
	})

	t.Run("alias before referenced physical column", func(t *testing.T) {
		b := NewBuilder("bad")
		f := b.AddField("x", "float", 0)
		b.AddAliasColumn(0, f)
		_, err := b.Build()
		require.Error(t, err)
	})

	t.Run("physical column after alias", func(t *testing.T) {
		b := NewBuilder("bad")
		f := b.AddField("x", "float", 0)
		col := b.AddColumn(ColumnTypeReal32, f)
		b.AddAliasColumn(col, f)
		b.AddColumn(ColumnTypeReal32, f)
		_, err := b.Build()
		require.Error(t, err)
	})

	t.Run("cluster range for unknown column", func(t *testing.T) {
		b := NewBuilder("bad")
		b.BeginCluster(0, 10).AddClusterColumn(7, 0, 10, 0, nil)
		_, err := b.Build()
		require.Error(t, err)
	})

	t.Run("duplicate column range in cluster", func(t *testing.T) {
		b := NewBuilder("bad")
		f := b.AddField("x", "float", 0)
		col := b.AddColumn(ColumnTypeReal32, f)
		b.BeginCluster(0, 10).
			AddClusterColumn(col, 0, 10, 0, nil).
			AddClusterColumn(col, 0, 10, 0, nil)
		_, err := b.Build()
		require.Error(t, err)
	})
}

func TestDescriptor_ClusterMembership(t *testing.T) {
	desc := buildTestDescriptor(t)
	clusters := desc.Clusters()
	require.Len(t, clusters, 2)

	assert.True(t, clusters[0].ContainsColumn(0))
	assert.True(t, clusters[0].ContainsColumn(1))
	assert.False(t, clusters[0].ContainsColumn(2))
	assert.Equal(t, []uint64{0, 1}, clusters[0].ColumnIDs())

	assert.True(t, clusters[1].ContainsColumn(0))
	assert.False(t, clusters[1].ContainsColumn(1))

	r, ok := clusters[1].ColumnRange(0)
	require.True(t, ok)
	assert.Equal(t, uint64(50), r.NElements)
	assert.Equal(t, int32(505), r.CompressionSettings)

	pr, ok := clusters[0].PageRange(1)
	require.True(t, ok)
	require.Len(t, pr.Pages, 1)
	assert.Equal(t, uint64(400), pr.Pages[0].Locator.BytesOnStorage)
}

func TestDescriptor_NameIndex(t *testing.T) {
	desc := buildTestDescriptor(t)

	id, ok := desc.FindFieldID("hits")
	require.True(t, ok)
	assert.Equal(t, uint64(1), id)

	id, ok = desc.FindFieldID("hits.energy")
	require.True(t, ok)
	assert.Equal(t, uint64(2), id)
	assert.Equal(t, "hits.energy", desc.QualifiedFieldName(2))

	_, ok = desc.FindFieldID("energy")
	assert.False(t, ok, "nested fields resolve by qualified name only")

	_, ok = desc.FindFieldID("missing")
	assert.False(t, ok)
}

func TestFieldNameIndex_PrefixLookup(t *testing.T) {
	desc := buildTestDescriptor(t)
	ids := desc.nameIndex.PrefixLookup("hits")
	assert.ElementsMatch(t, []uint64{1, 2}, ids)
	assert.Equal(t, 3, desc.nameIndex.Len())
}

func TestDescriptor_CloneIsIndependent(t *testing.T) {
	desc := buildTestDescriptor(t)
	clone := desc.Clone()

	assert.Equal(t, desc.NFields(), clone.NFields())
	assert.Equal(t, desc.NPhysicalColumns(), clone.NPhysicalColumns())
	assert.Equal(t, desc.NClusters(), clone.NClusters())

	// Mutating the original's cluster bitmap must not leak into the clone.
	desc.clusters[0].columns.Add(99)
	assert.False(t, clone.clusters[0].columns.Contains(99))

	// Same for field child lists and page slices.
	desc.fields[1].children[0] = 42
	assert.Equal(t, uint64(2), clone.fields[1].children[0])

	pr := desc.clusters[0].pageRanges[0]
	pr.Pages[0].Locator.BytesOnStorage = 1
	assert.Equal(t, uint64(120), clone.clusters[0].pageRanges[0].Pages[0].Locator.BytesOnStorage)

	// Name index was rebuilt, not shared.
	id, ok := clone.FindFieldID("hits.energy")
	require.True(t, ok)
	assert.Equal(t, uint64(2), id)
}

func TestColumnType_ElementSize(t *testing.T) {
	assert.Equal(t, uint64(1), ColumnTypeBit.ElementSize())
	assert.Equal(t, uint64(2), ColumnTypeInt16.ElementSize())
	assert.Equal(t, uint64(4), ColumnTypeReal32.ElementSize())
	assert.Equal(t, uint64(8), ColumnTypeIndex64.ElementSize())
	assert.Equal(t, uint64(0), ColumnTypeUnknown.ElementSize())
	assert.Equal(t, "Real64", ColumnTypeReal64.String())
}
