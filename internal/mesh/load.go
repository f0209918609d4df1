package mesh

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/paintmap/internal/assets"
	"github.com/Faultbox/paintmap/internal/logger"
)

// LoadOptions configures where Load looks for assets.
type LoadOptions struct {
	// Archives lists GRF archives searched, in order, when the path does
	// not exist on disk.
	Archives []string

	// Assets, if set, is searched instead of opening Archives. Callers
	// loading many models share one manager to keep archives open.
	Assets *assets.Manager
}

// source is an asset resolved either to a file on disk or to bytes read
// from an archive.
type source struct {
	path    string
	data    []byte
	archive string

	// fsys resolves files referenced by an archived asset, relative to it.
	fsys    fs.FS
	release func()
}

func (s *source) close() {
	if s.release != nil {
		s.release()
	}
}

// Load reads the asset at path and returns its geometry merged into one
// mesh. Missing or unreadable assets fail with ErrInput; assets without
// triangles or in an unknown format fail with ErrLoad.
func Load(path string, opts LoadOptions) (*Mesh, error) {
	src, err := resolve(path, opts)
	if err != nil {
		return nil, err
	}
	defer src.close()

	name := BaseName(path)
	var parts []*Mesh

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
		parts, err = loadGLTF(src)
	case ".rsm":
		parts, err = loadRSM(src)
	case ".stl":
		parts, err = loadSTL(src)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported format %q", ErrLoad, path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}

	m := Merge(name, parts...)
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("%w: %s: no triangle geometry", ErrLoad, path)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}

	logger.Info("mesh loaded",
		zap.String("model", name),
		zap.String("archive", src.archive),
		zap.Int("parts", len(parts)),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)),
		zap.Bool("authored_uvs", m.UVs != nil),
	)
	return m, nil
}

// BaseName returns the last element of path, treating both slash styles
// as separators so archive paths like data\model\x.rsm work everywhere.
func BaseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// archiveDir returns everything before the last slash of path, either style.
func archiveDir(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[:i]
	}
	return ""
}

func resolve(path string, opts LoadOptions) (*source, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory", ErrInput, path)
	case err == nil:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInput, err)
		}
		return &source{path: path, data: data}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}

	mgr := opts.Assets
	var release func()
	if mgr == nil && len(opts.Archives) > 0 {
		mgr = assets.NewManager()
		release = mgr.Close
		for _, archivePath := range opts.Archives {
			if err := mgr.AddArchive(archivePath); err != nil {
				logger.Warn("skipping archive", zap.String("archive", archivePath), zap.Error(err))
			}
		}
	}
	if mgr != nil {
		data, archive, err := mgr.Load(path)
		switch {
		case err == nil:
			return &source{
				data:    data,
				archive: archive,
				fsys:    mgr.FS(archiveDir(path)),
				release: release,
			}, nil
		case release != nil:
			release()
		}
		if !errors.Is(err, assets.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrInput, err)
		}
	}

	return nil, fmt.Errorf("%w: %s: no such file", ErrInput, path)
}
