package mesh

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func loadGLTF(src *source) ([]*Mesh, error) {
	var doc *gltf.Document
	if src.path != "" {
		// Open resolves external .bin buffers relative to the file.
		d, err := gltf.Open(src.path)
		if err != nil {
			return nil, err
		}
		doc = d
	} else {
		// Archived .gltf files read their external buffers through fsys.
		doc = new(gltf.Document)
		if err := gltf.NewDecoderFS(bytes.NewReader(src.data), src.fsys).Decode(doc); err != nil {
			return nil, err
		}
	}
	return gltfParts(doc)
}

// gltfParts flattens the scene graph into world-space parts, one per
// triangle primitive instance. Without scenes every mesh is taken as-is.
func gltfParts(doc *gltf.Document) ([]*Mesh, error) {
	w := &gltfWalker{doc: doc}

	var scenes []*gltf.Scene
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		scenes = []*gltf.Scene{doc.Scenes[*doc.Scene]}
	default:
		scenes = doc.Scenes
	}

	if len(scenes) == 0 {
		for i := range doc.Meshes {
			if err := w.addMesh(i, mgl64.Ident4()); err != nil {
				return nil, err
			}
		}
		return w.parts, nil
	}

	for _, s := range scenes {
		for _, n := range s.Nodes {
			if err := w.walk(int(n), mgl64.Ident4(), 0); err != nil {
				return nil, err
			}
		}
	}
	return w.parts, nil
}

type gltfWalker struct {
	doc   *gltf.Document
	parts []*Mesh
}

const maxNodeDepth = 256

func (w *gltfWalker) walk(idx int, parent mgl64.Mat4, depth int) error {
	if idx < 0 || idx >= len(w.doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}

	node := w.doc.Nodes[idx]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil {
		if err := w.addMesh(int(*node.Mesh), world); err != nil {
			return err
		}
	}
	for _, child := range node.Children {
		if err := w.walk(int(child), world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns the node's local transform: its explicit matrix when
// present, otherwise T*R*S.
func nodeMatrix(n *gltf.Node) mgl64.Mat4 {
	var m mgl64.Mat4
	for i, v := range n.MatrixOrDefault() {
		m[i] = float64(v)
	}
	if m != mgl64.Ident4() {
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()

	rot := mgl64.Quat{
		W: float64(r[3]),
		V: mgl64.Vec3{float64(r[0]), float64(r[1]), float64(r[2])},
	}.Normalize()
	return mgl64.Translate3D(float64(t[0]), float64(t[1]), float64(t[2])).
		Mul4(rot.Mat4()).
		Mul4(mgl64.Scale3D(float64(s[0]), float64(s[1]), float64(s[2])))
}

func (w *gltfWalker) addMesh(idx int, world mgl64.Mat4) error {
	if idx < 0 || idx >= len(w.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", idx)
	}
	for pi, p := range w.doc.Meshes[idx].Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		part, err := w.primitive(p, world)
		if err != nil {
			return fmt.Errorf("mesh %d primitive %d: %w", idx, pi, err)
		}
		if part != nil {
			w.parts = append(w.parts, part)
		}
	}
	return nil
}

func (w *gltfWalker) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(w.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return w.doc.Accessors[idx], nil
}

func (w *gltfWalker) primitive(p *gltf.Primitive, world mgl64.Mat4) (*Mesh, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	acr, err := w.accessor(int(posIdx))
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(w.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	part := &Mesh{Vertices: make([]mgl64.Vec3, len(positions))}
	for i, pos := range positions {
		v := mgl64.Vec4{float64(pos[0]), float64(pos[1]), float64(pos[2]), 1}
		part.Vertices[i] = world.Mul4x1(v).Vec3()
	}

	var indices []uint32
	if p.Indices != nil {
		acr, err := w.accessor(int(*p.Indices))
		if err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(w.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	n := uint32(len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if a >= n || b >= n || c >= n {
			continue
		}
		part.Faces = append(part.Faces, [3]int{int(a), int(b), int(c)})
	}

	if uvIdx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		acr, err := w.accessor(int(uvIdx))
		if err != nil {
			return nil, err
		}
		uvs, err := modeler.ReadTextureCoord(w.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading texcoords: %w", err)
		}
		part.UVs = make([]mgl64.Vec2, len(uvs))
		for i, uv := range uvs {
			part.UVs[i] = mgl64.Vec2{float64(uv[0]), float64(uv[1])}
		}
	}
	return part, nil
}
