// Package formats provides parsers for Ragnarok Online file formats.
// RSM (Resource Model) is the static prop format: a tree of named nodes,
// each carrying its own vertices, texture coordinates and triangles.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/paintmap/pkg/encoding"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidNodeCount      = errors.New("invalid RSM node count")
	ErrInvalidElementCount   = errors.New("invalid RSM element count")
)

const (
	rsmMagic      = "GRSM"
	rsmNameLength = 40

	maxNodes    = 10000
	maxElements = 100000
	maxKeys     = 10000
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMShadingType represents the shading mode for rendering.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0
	RSMShadingFlat   RSMShadingType = 1
	RSMShadingSmooth RSMShadingType = 2
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMTexCoord represents a texture coordinate with optional vertex color.
type RSMTexCoord struct {
	Color [4]uint8 // RGBA vertex color (v1.2+)
	U, V  float32
}

// RSMFace is a triangle. Positions and texture coordinates are indexed
// separately, so one vertex can carry different UVs on different faces.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16
	Padding     uint16
	TwoSide     int32
	SmoothGroup int32 // v1.2+
}

// RSMPosKeyframe represents a position animation keyframe.
type RSMPosKeyframe struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKeyframe represents a rotation animation keyframe.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32 // X, Y, Z, W
}

// RSMScaleKeyframe represents a scale animation keyframe.
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode represents a node in the model hierarchy.
type RSMNode struct {
	Name       string
	Parent     string // empty for the root
	TextureIDs []int32

	Matrix   [9]float32 // 3x3 row-major, applied to vertices only
	Offset   [3]float32 // pivot, applied to vertices only
	Position [3]float32
	RotAngle float32 // radians
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	PosKeys   []RSMPosKeyframe   // v < 1.5
	RotKeys   []RSMRotKeyframe   //
	ScaleKeys []RSMScaleKeyframe // v >= 1.5
}

// RSMVolumeBox represents a bounding volume box.
type RSMVolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // v1.3+
}

// RSM represents a parsed RSM (Resource Model) file.
type RSM struct {
	Version     RSMVersion
	AnimLength  int32 // milliseconds
	Shading     RSMShadingType
	Alpha       float32 // 0-1, v1.4+
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []RSMVolumeBox
}

// rsmReader is a little-endian reader that remembers the first failure so
// the parser can read a whole record and check once.
type rsmReader struct {
	r   *bytes.Reader
	err error
}

func (rr *rsmReader) read(v any) {
	if rr.err != nil {
		return
	}
	if err := binary.Read(rr.r, binary.LittleEndian, v); err != nil {
		rr.err = ErrTruncatedRSMData
	}
}

func (rr *rsmReader) name() string {
	buf := make([]byte, rsmNameLength)
	rr.read(buf)
	return encoding.FixedStringToUTF8(buf)
}

func (rr *rsmReader) count(limit int32) int32 {
	var n int32
	rr.read(&n)
	if rr.err == nil && (n < 0 || n > limit) {
		rr.err = fmt.Errorf("%w: %d", ErrInvalidElementCount, n)
	}
	if rr.err != nil {
		return 0
	}
	return n
}

// ParseRSM parses RSM data from a byte slice.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < 6 {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != rsmMagic {
		return nil, ErrInvalidRSMMagic
	}

	rr := &rsmReader{r: bytes.NewReader(data[4:])}

	rsm := &RSM{}
	rr.read(&rsm.Version.Major)
	rr.read(&rsm.Version.Minor)

	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	rr.read(&rsm.AnimLength)
	rr.read(&rsm.Shading)

	rsm.Alpha = 1.0
	if rsm.Version.AtLeast(1, 4) {
		var alpha uint8
		rr.read(&alpha)
		rsm.Alpha = float32(alpha) / 255.0
	}

	var reserved [16]byte
	rr.read(&reserved)

	textureCount := rr.count(maxElements)
	rsm.Textures = make([]string, textureCount)
	for i := range rsm.Textures {
		rsm.Textures[i] = rr.name()
	}

	rsm.RootNode = rr.name()

	var nodeCount int32
	rr.read(&nodeCount)
	if rr.err != nil {
		return nil, rr.err
	}
	if nodeCount < 0 || nodeCount > maxNodes {
		return nil, ErrInvalidNodeCount
	}

	rsm.Nodes = make([]RSMNode, nodeCount)
	for i := range rsm.Nodes {
		if err := parseRSMNode(rr, rsm.Version, &rsm.Nodes[i]); err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, err)
		}
	}

	// Volume boxes are optional trailing data.
	if rr.r.Len() >= 4 {
		var boxCount int32
		rr.read(&boxCount)
		if boxCount > 0 && boxCount < 1000 {
			boxes := make([]RSMVolumeBox, boxCount)
			for i := range boxes {
				rr.read(&boxes[i].Size)
				rr.read(&boxes[i].Position)
				rr.read(&boxes[i].Rotation)
				if rsm.Version.AtLeast(1, 3) {
					rr.read(&boxes[i].Flag)
				}
			}
			if rr.err == nil {
				rsm.VolumeBoxes = boxes
			}
		}
	}

	return rsm, nil
}

func parseRSMNode(rr *rsmReader, version RSMVersion, node *RSMNode) error {
	node.Name = rr.name()
	node.Parent = rr.name()

	node.TextureIDs = make([]int32, rr.count(maxElements))
	for i := range node.TextureIDs {
		rr.read(&node.TextureIDs[i])
	}

	rr.read(&node.Matrix)
	rr.read(&node.Offset)
	rr.read(&node.Position)
	rr.read(&node.RotAngle)
	rr.read(&node.RotAxis)
	rr.read(&node.Scale)

	node.Vertices = make([][3]float32, rr.count(maxElements))
	for i := range node.Vertices {
		rr.read(&node.Vertices[i])
	}

	node.TexCoords = make([]RSMTexCoord, rr.count(maxElements))
	for i := range node.TexCoords {
		tc := &node.TexCoords[i]
		if version.AtLeast(1, 2) {
			rr.read(&tc.Color)
		} else {
			tc.Color = [4]uint8{255, 255, 255, 255}
		}
		rr.read(&tc.U)
		rr.read(&tc.V)
	}

	node.Faces = make([]RSMFace, rr.count(maxElements))
	for i := range node.Faces {
		f := &node.Faces[i]
		rr.read(&f.VertexIDs)
		rr.read(&f.TexCoordIDs)
		rr.read(&f.TextureID)
		rr.read(&f.Padding)
		rr.read(&f.TwoSide)
		if version.AtLeast(1, 2) {
			rr.read(&f.SmoothGroup)
		}
	}

	if !version.AtLeast(1, 5) {
		node.PosKeys = make([]RSMPosKeyframe, rr.count(maxKeys))
		for i := range node.PosKeys {
			rr.read(&node.PosKeys[i].Frame)
			rr.read(&node.PosKeys[i].Position)
		}
	}

	node.RotKeys = make([]RSMRotKeyframe, rr.count(maxKeys))
	for i := range node.RotKeys {
		rr.read(&node.RotKeys[i].Frame)
		rr.read(&node.RotKeys[i].Quaternion)
	}

	if version.AtLeast(1, 5) {
		node.ScaleKeys = make([]RSMScaleKeyframe, rr.count(maxKeys))
		for i := range node.ScaleKeys {
			rr.read(&node.ScaleKeys[i].Frame)
			rr.read(&node.ScaleKeys[i].Scale)
		}
	}

	return rr.err
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// Encode writes rsm in the layout ParseRSM reads for rsm.Version.
func (rsm *RSM) Encode(w io.Writer) error {
	var buf bytes.Buffer
	put := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }
	putName := func(s string) {
		field := make([]byte, rsmNameLength)
		copy(field, encoding.UTF8ToEUCKR(s))
		buf.Write(field)
	}
	v := rsm.Version

	buf.WriteString(rsmMagic)
	put(v.Major)
	put(v.Minor)
	put(rsm.AnimLength)
	put(rsm.Shading)
	if v.AtLeast(1, 4) {
		put(uint8(rsm.Alpha*255 + 0.5))
	}
	buf.Write(make([]byte, 16))

	put(int32(len(rsm.Textures)))
	for _, tex := range rsm.Textures {
		putName(tex)
	}
	putName(rsm.RootNode)

	put(int32(len(rsm.Nodes)))
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		putName(n.Name)
		putName(n.Parent)
		put(int32(len(n.TextureIDs)))
		put(n.TextureIDs)
		put(n.Matrix)
		put(n.Offset)
		put(n.Position)
		put(n.RotAngle)
		put(n.RotAxis)
		put(n.Scale)

		put(int32(len(n.Vertices)))
		put(n.Vertices)

		put(int32(len(n.TexCoords)))
		for _, tc := range n.TexCoords {
			if v.AtLeast(1, 2) {
				put(tc.Color)
			}
			put(tc.U)
			put(tc.V)
		}

		put(int32(len(n.Faces)))
		for _, f := range n.Faces {
			put(f.VertexIDs)
			put(f.TexCoordIDs)
			put(f.TextureID)
			put(f.Padding)
			put(f.TwoSide)
			if v.AtLeast(1, 2) {
				put(f.SmoothGroup)
			}
		}

		if !v.AtLeast(1, 5) {
			put(int32(len(n.PosKeys)))
			put(n.PosKeys)
		}
		put(int32(len(n.RotKeys)))
		put(n.RotKeys)
		if v.AtLeast(1, 5) {
			put(int32(len(n.ScaleKeys)))
			put(n.ScaleKeys)
		}
	}

	put(int32(len(rsm.VolumeBoxes)))
	for _, b := range rsm.VolumeBoxes {
		put(b.Size)
		put(b.Position)
		put(b.Rotation)
		if v.AtLeast(1, 3) {
			put(b.Flag)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// TotalVertices returns the number of vertices across all nodes.
func (rsm *RSM) TotalVertices() int {
	total := 0
	for i := range rsm.Nodes {
		total += len(rsm.Nodes[i].Vertices)
	}
	return total
}

// TotalFaces returns the number of faces across all nodes.
func (rsm *RSM) TotalFaces() int {
	total := 0
	for i := range rsm.Nodes {
		total += len(rsm.Nodes[i].Faces)
	}
	return total
}

// NodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) NodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// HasAnimation returns true if any node carries keyframes.
func (rsm *RSM) HasAnimation() bool {
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		if len(n.PosKeys) > 0 || len(n.RotKeys) > 0 || len(n.ScaleKeys) > 0 {
			return true
		}
	}
	return false
}
