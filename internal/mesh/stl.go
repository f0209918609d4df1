package mesh

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hschendel/stl"
)

// loadSTL reads ASCII or binary STL. STL stores three unshared corners per
// triangle; identical positions are welded so that neighbouring faces share
// vertices.
func loadSTL(src *source) ([]*Mesh, error) {
	solid, err := stl.ReadAll(bytes.NewReader(src.data))
	if err != nil {
		return nil, err
	}

	part := &Mesh{}
	index := make(map[stl.Vec3]int)
	for _, tri := range solid.Triangles {
		var f [3]int
		for k, v := range tri.Vertices {
			idx, ok := index[v]
			if !ok {
				idx = len(part.Vertices)
				index[v] = idx
				part.Vertices = append(part.Vertices, mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
			}
			f[k] = idx
		}
		part.Faces = append(part.Faces, f)
	}
	return []*Mesh{part}, nil
}
