// Package format reads and writes container files: flat files holding one or
// more named columnar datasets. Only descriptor metadata is ever touched;
// page payloads are located but never decompressed here.
package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/descriptor"
)

// Codec identifies the compression applied to a descriptor envelope. The
// values match the algorithm digit of the dataset's compression settings
// (settings = algorithm*100 + level).
type Codec byte

const (
	CodecNone Codec = 0
	CodecZlib Codec = 1
	CodecZstd Codec = 5
)

// CodecFromSettings derives the envelope codec from compression settings.
func CodecFromSettings(settings int32) Codec {
	if settings <= 0 {
		return CodecNone
	}
	return Codec(settings / 100)
}

func compress(codec Codec, payload []byte) ([]byte, error) {
	switch codec {
	case CodecNone:
		return payload, nil
	case CodecZlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return nil, fmt.Errorf("zlib compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("zlib compress: %w", err)
		}
		return buf.Bytes(), nil
	case CodecZstd:
		zw, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd compress: %w", err)
		}
		defer zw.Close()
		return zw.EncodeAll(payload, nil), nil
	default:
		return nil, fmt.Errorf("codec %d: %w", codec, ErrUnsupportedCodec)
	}
}

func decompress(codec Codec, data []byte, uncompressedLen uint64) ([]byte, error) {
	var payload []byte
	switch codec {
	case CodecNone:
		payload = data
	case CodecZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		defer zr.Close()
		payload, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
	case CodecZstd:
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		defer zr.Close()
		payload, err = zr.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
	default:
		return nil, fmt.Errorf("codec %d: %w", codec, ErrUnsupportedCodec)
	}
	if uint64(len(payload)) != uncompressedLen {
		return nil, fmt.Errorf("payload is %d bytes, envelope declares %d: %w", len(payload), uncompressedLen, ErrCorruptEnvelope)
	}
	return payload, nil
}

// encodeEnvelope wraps an encoded descriptor payload into a self-describing
// envelope: codec byte, uncompressed length, compressed payload.
func encodeEnvelope(desc *descriptor.Descriptor, codec Codec) ([]byte, error) {
	payload := encodeDescriptor(desc)
	compressed, err := compress(codec, payload)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(compressed)+16)
	out = append(out, byte(codec))
	out = binary.AppendUvarint(out, uint64(len(payload)))
	out = append(out, compressed...)
	return out, nil
}

// decodeEnvelope unwraps and decodes a descriptor envelope.
func decodeEnvelope(data []byte) (*descriptor.Descriptor, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("envelope of %d bytes: %w", len(data), ErrCorruptEnvelope)
	}
	codec := Codec(data[0])
	r := bytes.NewReader(data[1:])
	uncompressedLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("envelope length: %w", ErrCorruptEnvelope)
	}
	compressed := data[len(data)-r.Len():]
	payload, err := decompress(codec, compressed, uncompressedLen)
	if err != nil {
		return nil, err
	}
	return decodeDescriptor(payload)
}

func encodeDescriptor(desc *descriptor.Descriptor) []byte {
	buf := make([]byte, 0, 1024)
	buf = appendString(buf, desc.Name())

	buf = binary.AppendUvarint(buf, desc.NFields())
	for id := uint64(0); id < desc.NFields(); id++ {
		f, _ := desc.Field(id)
		buf = appendString(buf, f.Name())
		buf = appendString(buf, f.TypeName())
		// parent+1 so the root's missing parent encodes as 0
		if id == desc.FieldZeroID() {
			buf = binary.AppendUvarint(buf, 0)
		} else {
			buf = binary.AppendUvarint(buf, f.ParentID()+1)
		}
	}

	buf = binary.AppendUvarint(buf, desc.NColumns())
	for id := uint64(0); id < desc.NColumns(); id++ {
		c, _ := desc.Column(id)
		buf = binary.AppendUvarint(buf, uint64(c.Type()))
		buf = binary.AppendUvarint(buf, c.FieldID())
		buf = binary.AppendUvarint(buf, c.PhysicalID())
	}

	clusters := desc.Clusters()
	buf = binary.AppendUvarint(buf, uint64(len(clusters)))
	for i := range clusters {
		cluster := &clusters[i]
		buf = binary.AppendUvarint(buf, cluster.FirstEntry())
		buf = binary.AppendUvarint(buf, cluster.NEntries())
		colIDs := cluster.ColumnIDs()
		buf = binary.AppendUvarint(buf, uint64(len(colIDs)))
		for _, colID := range colIDs {
			cr, _ := cluster.ColumnRange(colID)
			pr, _ := cluster.PageRange(colID)
			buf = binary.AppendUvarint(buf, colID)
			buf = binary.AppendUvarint(buf, cr.FirstElement)
			buf = binary.AppendUvarint(buf, cr.NElements)
			buf = binary.AppendUvarint(buf, uint64(uint32(cr.CompressionSettings)))
			buf = binary.AppendUvarint(buf, uint64(len(pr.Pages)))
			for _, page := range pr.Pages {
				buf = binary.AppendUvarint(buf, page.NElements)
				buf = binary.AppendUvarint(buf, page.Locator.BytesOnStorage)
				buf = binary.AppendUvarint(buf, page.Locator.Position)
			}
		}
	}

	return buf
}

func decodeDescriptor(payload []byte) (*descriptor.Descriptor, error) {
	r := bytes.NewReader(payload)

	name, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("dataset name: %w", err)
	}
	b := descriptor.NewBuilder(name)

	nFields, err := binary.ReadUvarint(r)
	if err != nil || nFields == 0 {
		return nil, fmt.Errorf("field count: %w", ErrCorruptEnvelope)
	}
	for id := uint64(0); id < nFields; id++ {
		fieldName, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("field %d name: %w", id, err)
		}
		typeName, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("field %d type: %w", id, err)
		}
		parentPlusOne, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("field %d parent: %w", id, err)
		}
		if id == 0 {
			continue // field zero is created by the builder
		}
		b.AddField(fieldName, typeName, parentPlusOne-1)
	}

	nColumns, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("column count: %w", ErrCorruptEnvelope)
	}
	for id := uint64(0); id < nColumns; id++ {
		typ, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("column %d type: %w", id, err)
		}
		fieldID, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("column %d field: %w", id, err)
		}
		physicalID, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("column %d physical id: %w", id, err)
		}
		if physicalID == id {
			b.AddColumn(descriptor.ColumnType(typ), fieldID)
		} else {
			b.AddAliasColumn(physicalID, fieldID)
		}
	}

	nClusters, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("cluster count: %w", ErrCorruptEnvelope)
	}
	for i := uint64(0); i < nClusters; i++ {
		firstEntry, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", i, err)
		}
		nEntries, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", i, err)
		}
		b.BeginCluster(firstEntry, nEntries)

		nCols, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("cluster %d column count: %w", i, err)
		}
		for j := uint64(0); j < nCols; j++ {
			colID, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("cluster %d range %d: %w", i, j, err)
			}
			firstElement, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("cluster %d range %d: %w", i, j, err)
			}
			nElements, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("cluster %d range %d: %w", i, j, err)
			}
			settings, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("cluster %d range %d: %w", i, j, err)
			}
			nPages, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("cluster %d range %d pages: %w", i, j, err)
			}
			pages := make([]descriptor.PageInfo, 0, nPages)
			for p := uint64(0); p < nPages; p++ {
				pageElements, err := binary.ReadUvarint(r)
				if err != nil {
					return nil, fmt.Errorf("cluster %d page %d: %w", i, p, err)
				}
				bytesOnStorage, err := binary.ReadUvarint(r)
				if err != nil {
					return nil, fmt.Errorf("cluster %d page %d: %w", i, p, err)
				}
				position, err := binary.ReadUvarint(r)
				if err != nil {
					return nil, fmt.Errorf("cluster %d page %d: %w", i, p, err)
				}
				pages = append(pages, descriptor.PageInfo{
					NElements: pageElements,
					Locator:   descriptor.Locator{Position: position, BytesOnStorage: bytesOnStorage},
				})
			}
			b.AddClusterColumn(colID, firstElement, nElements, int32(uint32(settings)), pages)
		}
	}

	desc, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return desc, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", ErrCorruptEnvelope
	}
	if n > uint64(r.Len()) {
		return "", ErrCorruptEnvelope
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", ErrCorruptEnvelope
	}
	return string(b), nil
}
