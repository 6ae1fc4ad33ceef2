package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/descriptor"
)

var fileMagic = [4]byte{'C', 'D', 'S', 'F'}

const (
	formatVersion = 1

	// magic + version + directory offset + directory length
	headerSize = 4 + 2 + 8 + 8
)

type dirEntry struct {
	name   string
	offset uint64
	length uint64
}

// File is an open container file. It gives access to the named datasets it
// holds; the caller owns it until ownership is handed to an inspector.
type File struct {
	f       *os.File
	path    string
	entries []dirEntry
	index   map[string]int
	logger  *slog.Logger
}

// Open opens a container file and reads its dataset directory.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open container file %s: %w", path, err)
	}

	file := &File{f: f, path: path, index: make(map[string]int), logger: slog.Default()}
	if err := file.readDirectory(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read container file %s: %w", path, err)
	}

	file.logger.Debug("opened container file",
		"path", path,
		"datasets", len(file.entries))
	return file, nil
}

func (f *File) readDirectory() error {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(io.NewSectionReader(f.f, 0, headerSize), header); err != nil {
		return ErrBadMagic
	}
	if !bytes.Equal(header[:4], fileMagic[:]) {
		return ErrBadMagic
	}
	version := binary.LittleEndian.Uint16(header[4:6])
	if version != formatVersion {
		return fmt.Errorf("version %d: %w", version, ErrUnsupportedVersion)
	}
	dirOffset := binary.LittleEndian.Uint64(header[6:14])
	dirLength := binary.LittleEndian.Uint64(header[14:22])

	dir := make([]byte, dirLength)
	if _, err := f.f.ReadAt(dir, int64(dirOffset)); err != nil {
		return fmt.Errorf("directory at offset %d: %w", dirOffset, err)
	}

	r := bytes.NewReader(dir)
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return fmt.Errorf("directory entry count: %w", ErrCorruptEnvelope)
	}
	for i := uint64(0); i < count; i++ {
		name, err := readString(r)
		if err != nil {
			return fmt.Errorf("directory entry %d: %w", i, err)
		}
		offset, err := binary.ReadUvarint(r)
		if err != nil {
			return fmt.Errorf("directory entry %d: %w", i, ErrCorruptEnvelope)
		}
		length, err := binary.ReadUvarint(r)
		if err != nil {
			return fmt.Errorf("directory entry %d: %w", i, ErrCorruptEnvelope)
		}
		f.index[name] = len(f.entries)
		f.entries = append(f.entries, dirEntry{name: name, offset: offset, length: length})
	}
	return nil
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Datasets lists the dataset names in directory order.
func (f *File) Datasets() []string {
	names := make([]string, len(f.entries))
	for i, e := range f.entries {
		names[i] = e.name
	}
	return names
}

// Dataset looks up a named dataset in the file.
func (f *File) Dataset(name string) (*Dataset, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("cannot read dataset %q from %s: %w", name, f.path, ErrDatasetNotFound)
	}
	return &Dataset{file: f, entry: f.entries[i]}, nil
}

// Close releases the underlying file handle.
func (f *File) Close() error {
	return f.f.Close()
}

// Dataset is a handle to one named dataset inside an open container file.
// It stays valid only as long as the file is open.
type Dataset struct {
	file  *File
	entry dirEntry
}

// Name returns the dataset's name inside its container file.
func (d *Dataset) Name() string { return d.entry.name }

// MakePageSource manufactures a page source for this dataset. The source
// reads from the dataset's container file and does not own it.
func (d *Dataset) MakePageSource() (*PageSource, error) {
	if d == nil {
		return nil, fmt.Errorf("provided dataset is nil")
	}
	return &PageSource{file: d.file, entry: d.entry}, nil
}

// NewPageSource wraps an already-built descriptor in a page source. This is
// the entry point for sources materialized outside a container file, such as
// in-memory descriptors.
func NewPageSource(desc *descriptor.Descriptor) *PageSource {
	return &PageSource{desc: desc}
}

// PageSource exposes a dataset's descriptor. Attach loads and decodes the
// descriptor envelope; page payloads are never read.
type PageSource struct {
	file  *File
	entry dirEntry
	desc  *descriptor.Descriptor
}

// Attach reads and decodes the descriptor. It is idempotent.
func (s *PageSource) Attach() error {
	if s.desc != nil {
		return nil
	}
	envelope := make([]byte, s.entry.length)
	if _, err := s.file.f.ReadAt(envelope, int64(s.entry.offset)); err != nil {
		return fmt.Errorf("failed to read descriptor envelope for %q: %w", s.entry.name, err)
	}
	desc, err := decodeEnvelope(envelope)
	if err != nil {
		return fmt.Errorf("failed to decode descriptor for %q: %w", s.entry.name, err)
	}
	s.desc = desc
	return nil
}

// SharedDescriptor returns the attached descriptor. Callers who need a view
// that survives the source must Clone it.
func (s *PageSource) SharedDescriptor() *descriptor.Descriptor { return s.desc }

// Close releases the source. The container file itself stays open; it is
// owned either by the caller or by the inspector holding it.
func (s *PageSource) Close() error {
	s.desc = nil
	return nil
}
