package descriptor

// ColumnType is the on-disk element type tag of a column.
type ColumnType uint16

const (
	ColumnTypeUnknown ColumnType = iota
	ColumnTypeBit
	ColumnTypeByte
	ColumnTypeChar
	ColumnTypeInt8
	ColumnTypeUInt8
	ColumnTypeInt16
	ColumnTypeUInt16
	ColumnTypeInt32
	ColumnTypeUInt32
	ColumnTypeInt64
	ColumnTypeUInt64
	ColumnTypeReal32
	ColumnTypeReal64
	ColumnTypeIndex32
	ColumnTypeIndex64
)

var columnTypeNames = map[ColumnType]string{
	ColumnTypeUnknown: "Unknown",
	ColumnTypeBit:     "Bit",
	ColumnTypeByte:    "Byte",
	ColumnTypeChar:    "Char",
	ColumnTypeInt8:    "Int8",
	ColumnTypeUInt8:   "UInt8",
	ColumnTypeInt16:   "Int16",
	ColumnTypeUInt16:  "UInt16",
	ColumnTypeInt32:   "Int32",
	ColumnTypeUInt32:  "UInt32",
	ColumnTypeInt64:   "Int64",
	ColumnTypeUInt64:  "UInt64",
	ColumnTypeReal32:  "Real32",
	ColumnTypeReal64:  "Real64",
	ColumnTypeIndex32: "Index32",
	ColumnTypeIndex64: "Index64",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ElementSize returns the byte size of a single element of this type in its
// default in-memory representation. Bits are unpacked to one byte in memory.
func (t ColumnType) ElementSize() uint64 {
	switch t {
	case ColumnTypeBit, ColumnTypeByte, ColumnTypeChar, ColumnTypeInt8, ColumnTypeUInt8:
		return 1
	case ColumnTypeInt16, ColumnTypeUInt16:
		return 2
	case ColumnTypeInt32, ColumnTypeUInt32, ColumnTypeReal32, ColumnTypeIndex32:
		return 4
	case ColumnTypeInt64, ColumnTypeUInt64, ColumnTypeReal64, ColumnTypeIndex64:
		return 8
	default:
		return 0
	}
}
