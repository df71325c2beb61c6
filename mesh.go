package gekko

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

type MeshAttribute string

// Attribute names follow glTF.
const (
	AttributePosition MeshAttribute = "POSITION"
	AttributeNormal   MeshAttribute = "NORMAL"
	AttributeUV0      MeshAttribute = "TEXCOORD_0"
	AttributeColor    MeshAttribute = "COLOR_0"
)

var ErrMissingVertexAttribute = errors.New("missing vertex attribute")

var attributeFormats = map[MeshAttribute]wgpu.VertexFormat{
	AttributePosition: wgpu.VertexFormatFloat32x3,
	AttributeNormal:   wgpu.VertexFormatFloat32x3,
	AttributeUV0:      wgpu.VertexFormatFloat32x2,
	AttributeColor:    wgpu.VertexFormatFloat32x4,
}

var attributeSizes = map[MeshAttribute]uint64{
	AttributePosition: 12,
	AttributeNormal:   12,
	AttributeUV0:      8,
	AttributeColor:    16,
}

// Mesh is a triangle list. Optional attributes are nil when absent.
type Mesh struct {
	Positions [][3]float32
	Normals   [][3]float32
	UV0       [][2]float32
	Colors    [][4]float32
	Indices   []uint32
	Targets   []MorphTarget
	// Default morph target weights, one per target.
	MorphWeights []float32
}

// MorphTarget holds per-vertex displacements. Normals is nil when the
// target does not move them.
type MorphTarget struct {
	Positions [][3]float32
	Normals   [][3]float32
}

// MorphWeights is the per-entity morph target weight array.
type MorphWeights struct {
	Weights []float32
}

// Morphed returns the mesh with sum(weights[i] * Targets[i]) applied to
// positions and normals. m is returned unchanged when no weight applies.
func (m *Mesh) Morphed(weights []float32) *Mesh {
	n := min(len(weights), len(m.Targets))
	active := false
	for _, w := range weights[:n] {
		if w != 0 {
			active = true
			break
		}
	}
	if !active {
		return m
	}

	out := *m
	out.Positions = append([][3]float32(nil), m.Positions...)
	if m.Has(AttributeNormal) {
		out.Normals = append([][3]float32(nil), m.Normals...)
	}
	for ti, target := range m.Targets[:n] {
		w := weights[ti]
		if w == 0 {
			continue
		}
		addScaled(out.Positions, target.Positions, w)
		if out.Normals != nil {
			addScaled(out.Normals, target.Normals, w)
		}
	}
	for i, nrm := range out.Normals {
		l := float32(math.Sqrt(float64(nrm[0]*nrm[0] + nrm[1]*nrm[1] + nrm[2]*nrm[2])))
		if l > 0 {
			out.Normals[i] = [3]float32{nrm[0] / l, nrm[1] / l, nrm[2] / l}
		}
	}
	return &out
}

func addScaled(dst, delta [][3]float32, w float32) {
	for i := range min(len(dst), len(delta)) {
		dst[i][0] += w * delta[i][0]
		dst[i][1] += w * delta[i][1]
		dst[i][2] += w * delta[i][2]
	}
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Has reports whether the attribute carries one value per vertex.
func (m *Mesh) Has(attr MeshAttribute) bool {
	n := len(m.Positions)
	if n == 0 {
		return false
	}
	switch attr {
	case AttributePosition:
		return true
	case AttributeNormal:
		return len(m.Normals) == n
	case AttributeUV0:
		return len(m.UV0) == n
	case AttributeColor:
		return len(m.Colors) == n
	}
	return false
}

func (m *Mesh) Attributes() []MeshAttribute {
	var res []MeshAttribute
	for _, attr := range []MeshAttribute{AttributePosition, AttributeNormal, AttributeUV0, AttributeColor} {
		if m.Has(attr) {
			res = append(res, attr)
		}
	}
	return res
}

type VertexAttributeLocation struct {
	Attribute MeshAttribute
	Location  uint32
}

// VertexBufferLayout describes one interleaved vertex buffer.
type VertexBufferLayout struct {
	Attributes  []VertexAttributeLocation
	ArrayStride uint64
}

func newVertexBufferLayout(attrs []VertexAttributeLocation) VertexBufferLayout {
	var stride uint64
	for _, a := range attrs {
		stride += attributeSizes[a.Attribute]
	}
	return VertexBufferLayout{Attributes: attrs, ArrayStride: stride}
}

// DefaultVertexLayout is used when a material does not specialize it.
// Attributes missing on a mesh are filled with defaults.
func DefaultVertexLayout() VertexBufferLayout {
	return newVertexBufferLayout([]VertexAttributeLocation{
		{AttributePosition, 0},
		{AttributeNormal, 1},
		{AttributeUV0, 2},
		{AttributeColor, 3},
	})
}

// GetLayout builds a layout for the requested attributes and fails when the
// mesh lacks any of them.
func (m *Mesh) GetLayout(attrs ...VertexAttributeLocation) (VertexBufferLayout, error) {
	for _, a := range attrs {
		if _, ok := attributeSizes[a.Attribute]; !ok {
			return VertexBufferLayout{}, fmt.Errorf("unknown vertex attribute %q", a.Attribute)
		}
		if !m.Has(a.Attribute) {
			return VertexBufferLayout{}, fmt.Errorf("%w: %s at location %d", ErrMissingVertexAttribute, a.Attribute, a.Location)
		}
	}
	return newVertexBufferLayout(attrs), nil
}

// Key identifies the layout for pipeline caching.
func (l VertexBufferLayout) Key() string {
	parts := make([]string, 0, len(l.Attributes))
	for _, a := range l.Attributes {
		parts = append(parts, fmt.Sprintf("%s@%d", a.Attribute, a.Location))
	}
	return strings.Join(parts, ",")
}

func (l VertexBufferLayout) wgpuLayout() wgpu.VertexBufferLayout {
	attributes := make([]wgpu.VertexAttribute, 0, len(l.Attributes))
	var offset uint64
	for _, a := range l.Attributes {
		attributes = append(attributes, wgpu.VertexAttribute{
			ShaderLocation: a.Location,
			Offset:         offset,
			Format:         attributeFormats[a.Attribute],
		})
		offset += attributeSizes[a.Attribute]
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: l.ArrayStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attributes,
	}
}

// Interleave packs vertex data in layout order, little endian.
func (m *Mesh) Interleave(l VertexBufferLayout) []byte {
	buf := make([]byte, 0, uint64(m.VertexCount())*l.ArrayStride)
	for i := range m.Positions {
		for _, a := range l.Attributes {
			buf = appendFloats(buf, m.attributeValue(a.Attribute, i)...)
		}
	}
	return buf
}

func (m *Mesh) attributeValue(attr MeshAttribute, i int) []float32 {
	switch attr {
	case AttributePosition:
		p := m.Positions[i]
		return p[:]
	case AttributeNormal:
		if m.Has(AttributeNormal) {
			n := m.Normals[i]
			return n[:]
		}
		return []float32{0, 1, 0}
	case AttributeUV0:
		if m.Has(AttributeUV0) {
			uv := m.UV0[i]
			return uv[:]
		}
		return []float32{0, 0}
	case AttributeColor:
		if m.Has(AttributeColor) {
			c := m.Colors[i]
			return c[:]
		}
		return []float32{1, 1, 1, 1}
	}
	panic(fmt.Sprintf("unknown vertex attribute %q", attr))
}

func appendFloats(buf []byte, values ...float32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// IndicesOrSequential returns the index list, generating 0..n-1 for
// non-indexed meshes.
func (m *Mesh) IndicesOrSequential() []uint32 {
	if len(m.Indices) > 0 {
		return m.Indices
	}
	res := make([]uint32, m.VertexCount())
	for i := range res {
		res[i] = uint32(i)
	}
	return res
}

// PlaneMesh is a size x size quad in the XZ plane facing +Y.
func PlaneMesh(size float32) *Mesh {
	h := size / 2
	return &Mesh{
		Positions: [][3]float32{{-h, 0, -h}, {h, 0, -h}, {h, 0, h}, {-h, 0, h}},
		Normals:   [][3]float32{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		UV0:       [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Indices:   []uint32{3, 2, 1, 3, 1, 0},
	}
}
