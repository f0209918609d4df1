package assets

import (
	"bytes"
	"errors"
	"io/fs"
	"path"
	"time"

	"github.com/Faultbox/paintmap/pkg/encoding"
)

// FS returns a read-only fs.FS over the manager's archives with names
// resolved relative to dir. It lets loaders follow relative references
// such as a glTF file's external buffers.
func (m *Manager) FS(dir string) fs.FS {
	return archiveFS{m: m, dir: path.Clean(encoding.NormalizePath(dir))}
}

type archiveFS struct {
	m   *Manager
	dir string
}

func (a archiveFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	data, _, err := a.m.Load(path.Join(a.dir, name))
	if errors.Is(err, ErrNotFound) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

func (a archiveFS) Open(name string) (fs.File, error) {
	data, err := a.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return &archiveFile{Reader: bytes.NewReader(data), name: path.Base(name), size: int64(len(data))}, nil
}

type archiveFile struct {
	*bytes.Reader
	name string
	size int64
}

func (f *archiveFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *archiveFile) Close() error               { return nil }

func (f *archiveFile) Name() string       { return f.name }
func (f *archiveFile) Size() int64        { return f.size }
func (f *archiveFile) Mode() fs.FileMode  { return 0444 }
func (f *archiveFile) ModTime() time.Time { return time.Time{} }
func (f *archiveFile) IsDir() bool        { return false }
func (f *archiveFile) Sys() any           { return nil }
