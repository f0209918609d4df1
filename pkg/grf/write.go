package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"

	"github.com/Faultbox/paintmap/pkg/encoding"
)

// File is a single entry handed to Write.
type File struct {
	Name string
	Data []byte
}

// Write creates a version 0x200 archive at path holding files, each
// zlib-compressed. Names are stored EUC-KR encoded.
func Write(path string, files []File) error {
	var body bytes.Buffer
	var table bytes.Buffer

	for _, f := range files {
		var compressed bytes.Buffer
		zw := zlib.NewWriter(&compressed)
		if _, err := zw.Write(f.Data); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}

		offset := uint32(body.Len())
		body.Write(compressed.Bytes())

		table.Write(encoding.UTF8ToEUCKR(f.Name))
		table.WriteByte(0)
		var rec [17]byte
		binary.LittleEndian.PutUint32(rec[0:], uint32(compressed.Len()))
		binary.LittleEndian.PutUint32(rec[4:], uint32(compressed.Len()))
		binary.LittleEndian.PutUint32(rec[8:], uint32(len(f.Data)))
		rec[12] = flagFile
		binary.LittleEndian.PutUint32(rec[13:], offset)
		table.Write(rec[:])
	}

	var compressedTable bytes.Buffer
	zw := zlib.NewWriter(&compressedTable)
	if _, err := zw.Write(table.Bytes()); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	var h Header
	copy(h.Magic[:], grfMagic)
	h.TableOffset = uint32(body.Len())
	h.FileCount = uint32(len(files)) + 7
	h.Version = 0x200

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, &h); err != nil {
		return err
	}
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(compressedTable.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(compressedTable.Bytes())

	return os.WriteFile(path, out.Bytes(), 0644)
}
