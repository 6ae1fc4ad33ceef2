package inspect

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/format"
)

func writeEventsFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	w, err := format.NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteDataset(eventsDescriptor(t), format.CodecZstd))
	require.NoError(t, w.Close())
	return path
}

func TestBuildReport(t *testing.T) {
	in := newInspector(t, eventsDescriptor(t))
	report := BuildReport(in)

	assert.Equal(t, "events", report.Dataset)
	assert.Equal(t, in.ID().String(), report.InspectionID)
	assert.Equal(t, uint64(3), report.NFields)
	assert.Equal(t, uint64(3), report.NPhysicalColumns)
	assert.Equal(t, uint64(1), report.NClusters)
	assert.Equal(t, int32(5), report.CompressionSettings)
	assert.Equal(t, uint64(170), report.OnDiskSize)
	assert.Equal(t, uint64(400), report.InMemorySize)

	require.Len(t, report.Columns, 3)
	assert.Equal(t, "Real32", report.Columns[0].Type)
	assert.InDelta(t, 1.0, report.Columns[0].CompressionRatio, 1e-9)
	assert.InDelta(t, 2.0, report.Columns[1].CompressionRatio, 1e-9)
	assert.InDelta(t, 10.0, report.Columns[2].CompressionRatio, 1e-9)

	require.Len(t, report.Fields, 3)
	assert.Equal(t, "", report.Fields[0].Name)
	assert.Equal(t, "hits", report.Fields[1].Name)
	assert.Equal(t, "hits.edep", report.Fields[2].Name)
	assert.Equal(t, uint64(170), report.Fields[1].OnDiskSize)
	assert.Equal(t, uint64(20), report.Fields[2].OnDiskSize)

	// ratios 1, 2 and 10
	assert.InDelta(t, 13.0/3.0, report.CompressionRatioMean, 1e-9)
	assert.InDelta(t, 4.9329, report.CompressionRatioStdDev, 1e-3)
}

func TestInspectAll(t *testing.T) {
	dir := t.TempDir()
	pathA := writeEventsFile(t, dir, "a.cdsf")
	pathB := writeEventsFile(t, dir, "b.cdsf")

	targets := []Target{
		{Path: pathA, Dataset: "events"},
		{Path: pathB, Dataset: "events"},
	}

	reports, err := InspectAll(context.Background(), targets, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, pathA, reports[0].Path)
	assert.Equal(t, pathB, reports[1].Path)
	for _, report := range reports {
		assert.Equal(t, "events", report.Dataset)
		assert.Equal(t, uint64(170), report.OnDiskSize)
	}
}

func TestInspectAll_FailsOnMissingDataset(t *testing.T) {
	dir := t.TempDir()
	path := writeEventsFile(t, dir, "a.cdsf")

	_, err := InspectAll(context.Background(), []Target{{Path: path, Dataset: "missing"}}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, format.ErrDatasetNotFound))
}
