package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/paintmap/internal/logger"
	"github.com/Faultbox/paintmap/pkg/formats"
)

func loadRSM(src *source) ([]*Mesh, error) {
	rsm, err := formats.ParseRSM(src.data)
	if err != nil {
		return nil, err
	}
	if rsm.HasAnimation() {
		logger.Debug("rsm animation ignored, using rest pose", zap.Int32("anim_ms", rsm.AnimLength))
	}

	parts := make([]*Mesh, 0, len(rsm.Nodes))
	for i := range rsm.Nodes {
		if p := rsmNodePart(rsm, &rsm.Nodes[i]); p != nil {
			parts = append(parts, p)
		}
	}
	return parts, nil
}

// rsmNodePart converts one node to world space. Faces pointing past the
// node's vertex list are dropped; missing texcoords become (0,0).
func rsmNodePart(rsm *formats.RSM, node *formats.RSMNode) *Mesh {
	if len(node.Vertices) == 0 {
		return nil
	}

	m := rsmNodeMatrix(rsm, node)
	part := &Mesh{Vertices: make([]mgl64.Vec3, len(node.Vertices))}
	for i, v := range node.Vertices {
		p := m.Mul4x1(mgl64.Vec4{float64(v[0]), float64(v[1]), float64(v[2]), 1}).Vec3()
		// RSM is Y-down.
		p[1] = -p[1]
		part.Vertices[i] = p
	}

	part.CornerUVs = make([][3]mgl64.Vec2, 0, len(node.Faces))
	for _, f := range node.Faces {
		valid := true
		for _, vid := range f.VertexIDs {
			if int(vid) >= len(node.Vertices) {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}

		part.Faces = append(part.Faces, [3]int{int(f.VertexIDs[0]), int(f.VertexIDs[1]), int(f.VertexIDs[2])})

		var corners [3]mgl64.Vec2
		for k, tid := range f.TexCoordIDs {
			if int(tid) < len(node.TexCoords) {
				tc := node.TexCoords[tid]
				corners[k] = mgl64.Vec2{float64(tc.U), float64(tc.V)}
			}
		}
		part.CornerUVs = append(part.CornerUVs, corners)
	}
	return part
}

// rsmNodeMatrix returns the rest-pose vertex transform of node: the
// inherited hierarchy matrix followed by the node-local Offset and 3x3
// matrix, which children do not inherit.
func rsmNodeMatrix(rsm *formats.RSM, node *formats.RSMNode) mgl64.Mat4 {
	visited := make(map[string]bool)
	h := rsmHierarchyMatrix(rsm, node, visited)

	m3 := node.Matrix
	local := mgl64.Mat4{
		float64(m3[0]), float64(m3[1]), float64(m3[2]), 0,
		float64(m3[3]), float64(m3[4]), float64(m3[5]), 0,
		float64(m3[6]), float64(m3[7]), float64(m3[8]), 0,
		0, 0, 0, 1,
	}
	off := node.Offset
	return h.Mul4(mgl64.Translate3D(float64(off[0]), float64(off[1]), float64(off[2]))).Mul4(local)
}

// rsmHierarchyMatrix is parent * Position * Rotation * Scale.
func rsmHierarchyMatrix(rsm *formats.RSM, node *formats.RSMNode, visited map[string]bool) mgl64.Mat4 {
	if visited[node.Name] {
		return mgl64.Ident4()
	}
	visited[node.Name] = true

	p := node.Position
	m := mgl64.Translate3D(float64(p[0]), float64(p[1]), float64(p[2]))

	if node.RotAngle != 0 {
		axis := mgl64.Vec3{float64(node.RotAxis[0]), float64(node.RotAxis[1]), float64(node.RotAxis[2])}
		if axis.Len() > 1e-6 {
			m = m.Mul4(mgl64.HomogRotate3D(float64(node.RotAngle), axis.Normalize()))
		}
	}

	s := node.Scale
	m = m.Mul4(mgl64.Scale3D(float64(s[0]), float64(s[1]), float64(s[2])))

	if node.Parent != "" && node.Parent != node.Name {
		if parent := rsm.NodeByName(node.Parent); parent != nil {
			return rsmHierarchyMatrix(rsm, parent, visited).Mul4(m)
		}
	}
	return m
}
