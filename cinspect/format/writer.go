package format

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/descriptor"
)

// Writer creates a container file. Descriptor envelopes are written as
// datasets are added; the directory and final header land on Close.
type Writer struct {
	f       *os.File
	path    string
	offset  uint64
	entries []dirEntry
	closed  bool
}

// NewWriter creates (or truncates) a container file at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create container file %s: %w", path, err)
	}
	// Placeholder header, patched on Close once the directory position is known.
	if _, err := f.Write(make([]byte, headerSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header of %s: %w", path, err)
	}
	return &Writer{f: f, path: path, offset: headerSize}, nil
}

// WriteDataset encodes the descriptor into an envelope compressed with the
// given codec and registers it under the descriptor's dataset name.
func (w *Writer) WriteDataset(desc *descriptor.Descriptor, codec Codec) error {
	if w.closed {
		return fmt.Errorf("container file %s already closed", w.path)
	}
	envelope, err := encodeEnvelope(desc, codec)
	if err != nil {
		return fmt.Errorf("failed to encode dataset %q: %w", desc.Name(), err)
	}
	if _, err := w.f.Write(envelope); err != nil {
		return fmt.Errorf("failed to write dataset %q: %w", desc.Name(), err)
	}
	w.entries = append(w.entries, dirEntry{
		name:   desc.Name(),
		offset: w.offset,
		length: uint64(len(envelope)),
	})
	w.offset += uint64(len(envelope))
	return nil
}

// Close writes the dataset directory, patches the header and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	dir := binary.AppendUvarint(nil, uint64(len(w.entries)))
	for _, e := range w.entries {
		dir = appendString(dir, e.name)
		dir = binary.AppendUvarint(dir, e.offset)
		dir = binary.AppendUvarint(dir, e.length)
	}
	if _, err := w.f.Write(dir); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to write directory of %s: %w", w.path, err)
	}

	header := make([]byte, headerSize)
	copy(header[:4], fileMagic[:])
	binary.LittleEndian.PutUint16(header[4:6], formatVersion)
	binary.LittleEndian.PutUint64(header[6:14], w.offset)
	binary.LittleEndian.PutUint64(header[14:22], uint64(len(dir)))
	if _, err := w.f.WriteAt(header, 0); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to finalize header of %s: %w", w.path, err)
	}

	return w.f.Close()
}
