// Package grf reads Ragnarok Online GRF archives, the container models are
// usually shipped in.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/paintmap/pkg/encoding"
)

const (
	grfMagic   = "Master of Magic"
	headerSize = 46
)

// GRF errors.
var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrNotFound           = errors.New("file not found in archive")
	ErrEncrypted          = errors.New("encrypted GRF entries are not supported")
)

// Archive represents an opened GRF archive.
type Archive struct {
	file    *os.File
	header  Header
	entries map[string]*Entry
}

// Header contains GRF file header information.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry represents a file entry in the archive.
type Entry struct {
	Name             string
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

const (
	flagFile      = 0x01
	flagEncrypted = 0x02
)

// Open opens a GRF archive for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	a := &Archive{
		file:    file,
		entries: make(map[string]*Entry),
	}

	if err := a.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return a, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	if err := binary.Read(io.NewSectionReader(a.file, 0, headerSize), binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != 0x200 {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	tableOffset := int64(a.header.TableOffset) + headerSize

	var sizes [2]uint32
	if err := binary.Read(io.NewSectionReader(a.file, tableOffset, 8), binary.LittleEndian, &sizes); err != nil {
		return err
	}
	compressedSize, uncompressedSize := sizes[0], sizes[1]

	compressed := make([]byte, compressedSize)
	if _, err := a.file.ReadAt(compressed, tableOffset+8); err != nil {
		return err
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return err
	}
	defer zr.Close()

	table := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(zr, table); err != nil {
		return err
	}

	count := a.header.FileCount - a.header.Seed - 7
	offset := 0
	for i := uint32(0); i < count; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 {
			break
		}
		name := encoding.EUCKRToUTF8(table[offset : offset+nameEnd])
		offset += nameEnd + 1

		if offset+17 > len(table) {
			break
		}
		e := &Entry{
			Name:             encoding.NormalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(table[offset:]),
			AlignedSize:      binary.LittleEndian.Uint32(table[offset+4:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[offset+8:]),
			Flags:            table[offset+12],
			Offset:           binary.LittleEndian.Uint32(table[offset+13:]),
		}
		offset += 17

		// Directory entries carry no file flag.
		if e.Flags&flagFile != 0 {
			a.entries[e.Name] = e
		}
	}
	return nil
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for path := range a.entries {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Contains reports whether the archive holds path.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[encoding.NormalizePath(path)]
	return ok
}

// Read returns the decompressed contents of path.
func (a *Archive) Read(path string) ([]byte, error) {
	e, ok := a.entries[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if e.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	raw := make([]byte, e.AlignedSize)
	if _, err := a.file.ReadAt(raw, int64(e.Offset)+headerSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if e.CompressedSize == e.UncompressedSize {
		return raw[:e.UncompressedSize], nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw[:e.CompressedSize]))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	defer zr.Close()

	out := make([]byte, e.UncompressedSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return out, nil
}
