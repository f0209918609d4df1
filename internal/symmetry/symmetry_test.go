package symmetry

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/paintmap/internal/mesh"
)

// diamond is a unit-diagonal square centred on x=0, split along the Y axis
// into two triangles that mirror each other across the YZ plane.
func diamond() (*mesh.Mesh, []mgl64.Vec2) {
	m := &mesh.Mesh{
		Vertices: []mgl64.Vec3{{0, 0, 0}, {0.5, 0.5, 0}, {0, 1, 0}, {-0.5, 0.5, 0}},
		Faces:    [][3]int{{0, 1, 2}, {0, 3, 2}},
	}
	uvs := []mgl64.Vec2{{0.5, 1}, {1, 0.5}, {0.5, 0}, {0, 0.5}}
	return m, uvs
}

// mirroredStrip builds n triangles at x>0 followed by their reflections
// across the given coordinate, interleaved when interleave is set.
func mirroredStrip(n, flip int, interleave bool) *mesh.Mesh {
	m := &mesh.Mesh{}
	add := func(tri [3]mgl64.Vec3) {
		base := len(m.Vertices)
		m.Vertices = append(m.Vertices, tri[0], tri[1], tri[2])
		m.Faces = append(m.Faces, [3]int{base, base + 1, base + 2})
	}
	mirror := func(tri [3]mgl64.Vec3) [3]mgl64.Vec3 {
		for k := range tri {
			tri[k][flip] = -tri[k][flip]
		}
		return tri
	}

	var right [][3]mgl64.Vec3
	for i := 0; i < n; i++ {
		o := float64(i)
		right = append(right, [3]mgl64.Vec3{
			{1 + o, 0.3 * o, 0.1},
			{1.5 + o, 0.3*o + 0.2, 0.4},
			{1.2 + o, 0.3*o + 0.7, 0.2},
		})
	}
	if interleave {
		for _, tri := range right {
			add(tri)
			add(mirror(tri))
		}
		return m
	}
	for _, tri := range right {
		add(tri)
	}
	for _, tri := range right {
		add(mirror(tri))
	}
	return m
}

func TestParsePlane(t *testing.T) {
	tests := []struct {
		in      string
		want    Plane
		flip    int
		wantErr bool
	}{
		{"yz", PlaneYZ, 0, false},
		{"xz", PlaneXZ, 1, false},
		{"xy", PlaneXY, 2, false},
		{"none", PlaneNone, -1, false},
		{"zz", PlaneNone, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlane(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlane(%q) error = %v", tt.in, err)
			}
			if got != tt.want || got.FlipIndex() != tt.flip {
				t.Errorf("ParsePlane(%q) = %v (flip %d)", tt.in, got, got.FlipIndex())
			}
			if !tt.wantErr && got.String() != tt.in {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestMatchUnitSquare(t *testing.T) {
	m, uvs := diamond()
	pairs, err := Match(context.Background(), m, uvs, PlaneYZ, DefaultOptions())
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("got %d pairs, want 3", len(pairs))
	}

	want := []Pair{
		{Source: [2]float64{0.5, 1}, Target: [2]float64{0.5, 1}},
		{Source: [2]float64{1, 0.5}, Target: [2]float64{0, 0.5}},
		{Source: [2]float64{0.5, 0}, Target: [2]float64{0.5, 0}},
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func TestMatchNone(t *testing.T) {
	m, uvs := diamond()
	pairs, err := Match(context.Background(), m, uvs, PlaneNone, DefaultOptions())
	if err != nil || pairs != nil {
		t.Errorf("Match(PlaneNone) = %v, %v; want nil, nil", pairs, err)
	}
}

func TestMatchWrongPlaneLeavesFacesUnmatched(t *testing.T) {
	m, uvs := diamond()
	pairs, err := Match(context.Background(), m, uvs, PlaneXZ, DefaultOptions())
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if pairs == nil || len(pairs) != 0 {
		t.Errorf("pairs = %v, want empty non-nil slice", pairs)
	}
}

func TestMatchSymmetricMeshFullyMatched(t *testing.T) {
	tests := []struct {
		name       string
		flip       int
		plane      Plane
		interleave bool
		opts       Options
	}{
		{"yz blocks", 0, PlaneYZ, false, DefaultOptions()},
		{"yz interleaved", 0, PlaneYZ, true, DefaultOptions()},
		{"xz small chunks", 1, PlaneXZ, false, Options{Tolerance: 0.02, ChunkSize: 3, Workers: 2}},
		{"xy single worker", 2, PlaneXY, true, Options{Tolerance: 0.02, ChunkSize: 1, Workers: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mirroredStrip(10, tt.flip, tt.interleave)
			matches, err := matchFaces(context.Background(), m, tt.plane, tt.opts)
			if err != nil {
				t.Fatalf("matchFaces failed: %v", err)
			}
			if len(matches) != len(m.Faces)/2 {
				t.Fatalf("matched %d face pairs, want %d", len(matches), len(m.Faces)/2)
			}

			seen := make(map[int]bool)
			for _, fp := range matches {
				if fp[0] == fp[1] {
					t.Errorf("face %d matched to itself", fp[0])
				}
				for _, f := range fp {
					if seen[f] {
						t.Errorf("face %d appears in more than one pair", f)
					}
					seen[f] = true
				}
			}
		})
	}
}

func TestMatchDeterministicAcrossChunking(t *testing.T) {
	m := mirroredStrip(25, 0, true)
	// Add an asymmetric face that must stay unmatched.
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, mgl64.Vec3{40, 40, 40}, mgl64.Vec3{41, 40, 40}, mgl64.Vec3{40, 41, 40})
	m.Faces = append(m.Faces, [3]int{base, base + 1, base + 2})

	ref, err := matchFaces(context.Background(), m, PlaneYZ, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, chunk := range []int{1, 4, 7, 51, 5000} {
		got, err := matchFaces(context.Background(), m, PlaneYZ, Options{Tolerance: 0.02, ChunkSize: chunk, Workers: 3})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(ref) {
			t.Fatalf("chunk %d: %d matches, want %d", chunk, len(got), len(ref))
		}
		for i := range ref {
			if got[i] != ref[i] {
				t.Errorf("chunk %d: match %d = %v, want %v", chunk, i, got[i], ref[i])
			}
		}
	}
	for _, fp := range ref {
		if fp[0] == len(m.Faces)-1 || fp[1] == len(m.Faces)-1 {
			t.Error("asymmetric face was matched")
		}
	}
}

func TestMatchTolerance(t *testing.T) {
	m, uvs := diamond()
	m.Vertices[3] = mgl64.Vec3{-0.5, 0.53, 0} // shifts the left centroid by 0.01

	tests := []struct {
		tol   float64
		pairs int
	}{
		{0.02, 3},
		{0.005, 0},
	}
	for _, tt := range tests {
		pairs, err := Match(context.Background(), m, uvs, PlaneYZ, Options{Tolerance: tt.tol})
		if err != nil {
			t.Fatal(err)
		}
		if len(pairs) != tt.pairs {
			t.Errorf("tolerance %g: %d pairs, want %d", tt.tol, len(pairs), tt.pairs)
		}
	}
}

func TestMatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, uvs := diamond()
	if _, err := Match(ctx, m, uvs, PlaneYZ, DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("Match error = %v, want context.Canceled", err)
	}
}

func TestMatchUVCountMismatch(t *testing.T) {
	m, _ := diamond()
	if _, err := Match(context.Background(), m, nil, PlaneYZ, DefaultOptions()); err == nil {
		t.Error("expected error for missing uvs")
	}
}
