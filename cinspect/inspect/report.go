package inspect

import (
	"gonum.org/v1/gonum/stat"
)

// ColumnReport is the flat, serializable view of one physical column.
type ColumnReport struct {
	PhysicalID       uint64  `json:"physicalId"`
	Type             string  `json:"type"`
	ElementCount     uint64  `json:"elementCount"`
	OnDiskSize       uint64  `json:"onDiskSize"`
	InMemorySize     uint64  `json:"inMemorySize"`
	CompressionRatio float64 `json:"compressionRatio"`
}

// FieldReport is the flat, serializable view of one field subtree.
type FieldReport struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	TypeName     string `json:"typeName"`
	OnDiskSize   uint64 `json:"onDiskSize"`
	InMemorySize uint64 `json:"inMemorySize"`
}

// Report is a one-shot summary of an inspection, ready for printing or JSON
// output.
type Report struct {
	InspectionID        string         `json:"inspectionId"`
	Dataset             string         `json:"dataset"`
	Path                string         `json:"path,omitempty"`
	NFields             uint64         `json:"fieldCount"`
	NPhysicalColumns    uint64         `json:"physicalColumnCount"`
	NClusters           uint64         `json:"clusterCount"`
	CompressionSettings int32          `json:"compressionSettings"`
	OnDiskSize          uint64         `json:"onDiskSize"`
	InMemorySize        uint64         `json:"inMemorySize"`
	Columns             []ColumnReport `json:"columns"`
	Fields              []FieldReport  `json:"fields"`

	// Distribution of per-column in-memory/on-disk ratios.
	CompressionRatioMean   float64 `json:"compressionRatioMean"`
	CompressionRatioStdDev float64 `json:"compressionRatioStdDev"`
}

// BuildReport flattens an inspector's statistics into a Report.
func BuildReport(in *Inspector) *Report {
	desc := in.Descriptor()
	report := &Report{
		InspectionID:        in.ID().String(),
		Dataset:             desc.Name(),
		NFields:             desc.NFields(),
		NPhysicalColumns:    desc.NPhysicalColumns(),
		NClusters:           desc.NClusters(),
		CompressionSettings: in.CompressionSettings(),
		OnDiskSize:          in.OnDiskSize(),
		InMemorySize:        in.InMemorySize(),
	}

	var ratios []float64
	for _, colInfo := range in.ColumnInfos() {
		col := ColumnReport{
			PhysicalID:   colInfo.Descriptor().PhysicalID(),
			Type:         colInfo.Type().String(),
			ElementCount: colInfo.NElements(),
			OnDiskSize:   colInfo.OnDiskSize(),
			InMemorySize: colInfo.InMemorySize(),
		}
		if colInfo.OnDiskSize() > 0 {
			col.CompressionRatio = float64(colInfo.InMemorySize()) / float64(colInfo.OnDiskSize())
			ratios = append(ratios, col.CompressionRatio)
		}
		report.Columns = append(report.Columns, col)
	}

	for fieldID := uint64(0); fieldID < desc.NFields(); fieldID++ {
		fieldInfo := in.fieldInfo[fieldID]
		report.Fields = append(report.Fields, FieldReport{
			ID:           fieldID,
			Name:         desc.QualifiedFieldName(fieldID),
			TypeName:     fieldInfo.Descriptor().TypeName(),
			OnDiskSize:   fieldInfo.OnDiskSize(),
			InMemorySize: fieldInfo.InMemorySize(),
		})
	}

	if len(ratios) > 0 {
		report.CompressionRatioMean = stat.Mean(ratios, nil)
		report.CompressionRatioStdDev = stat.StdDev(ratios, nil)
	}

	return report
}
