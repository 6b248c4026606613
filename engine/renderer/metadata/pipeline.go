package metadata

import (
	"encoding/binary"
	"hash"
	"hash/fnv"

	"github.com/helix-engine/helix/engine/assets"
)

// PrimitiveTopology is the primitive type fed to the rasterizer.
type PrimitiveTopology uint8

const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyPointList
)

// FaceCullMode determines face culling during rendering.
type FaceCullMode uint8

const (
	FaceCullModeNone FaceCullMode = iota
	FaceCullModeFront
	FaceCullModeBack
	FaceCullModeFrontAndBack
)

// FrontFace defines which winding is considered front-facing.
type FrontFace uint8

const (
	FrontFaceCounterClockwise FrontFace = iota
	FrontFaceClockwise
)

// CompareOp is a depth comparison function.
type CompareOp uint8

const (
	CompareOpNever CompareOp = iota
	CompareOpLess
	CompareOpEqual
	CompareOpLessOrEqual
	CompareOpGreater
	CompareOpNotEqual
	CompareOpGreaterOrEqual
	CompareOpAlways
)

// BlendFactor is a color blend factor.
type BlendFactor uint8

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
)

// BlendOp is a blend operation.
type BlendOp uint8

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

// VertexFormat is the data format of one vertex attribute.
type VertexFormat uint8

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint32
	VertexFormatSint32
)

// TextureFormat is a render-target format.
type TextureFormat uint8

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatBGRA8Unorm
	TextureFormatRGBA8Unorm
	TextureFormatD32Float
	TextureFormatD24UnormS8Uint
)

// VertexAttribute describes one attribute within the vertex buffer.
type VertexAttribute struct {
	Location uint32
	Format   VertexFormat
	Offset   uint32
}

// ShaderStageDescription identifies the shader module for one stage by
// its asset identity.
type ShaderStageDescription struct {
	Shader     assets.ID
	FileID     uint16
	EntryPoint string
}

// BlendComponent describes blending for color or alpha.
type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Operation BlendOp
}

// BlendState is the full color blending configuration.
type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

// PipelineDescription is the full set of structural parameters that
// determine a compiled pipeline object's behavior. It is the key of the
// pipeline cache: two descriptions that compare Equal map to the same
// compiled pipeline.
//
// Label is a debug name only and takes no part in equality or hashing.
type PipelineDescription struct {
	Label string

	VertexShader   ShaderStageDescription
	FragmentShader ShaderStageDescription

	VertexStride     uint32
	VertexAttributes []VertexAttribute

	Topology  PrimitiveTopology
	CullMode  FaceCullMode
	FrontFace FrontFace
	Wireframe bool

	DepthTest    bool
	DepthWrite   bool
	DepthCompare CompareOp

	BlendEnable bool
	Blend       BlendState

	ColorFormat TextureFormat
	DepthFormat TextureFormat
	SampleCount uint32
}

// Equal reports structural equality of two descriptions.
func (d *PipelineDescription) Equal(o *PipelineDescription) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.VertexShader != o.VertexShader ||
		d.FragmentShader != o.FragmentShader ||
		d.VertexStride != o.VertexStride ||
		d.Topology != o.Topology ||
		d.CullMode != o.CullMode ||
		d.FrontFace != o.FrontFace ||
		d.Wireframe != o.Wireframe ||
		d.DepthTest != o.DepthTest ||
		d.DepthWrite != o.DepthWrite ||
		d.DepthCompare != o.DepthCompare ||
		d.BlendEnable != o.BlendEnable ||
		d.Blend != o.Blend ||
		d.ColorFormat != o.ColorFormat ||
		d.DepthFormat != o.DepthFormat ||
		d.SampleCount != o.SampleCount {
		return false
	}
	if len(d.VertexAttributes) != len(o.VertexAttributes) {
		return false
	}
	for i := range d.VertexAttributes {
		if d.VertexAttributes[i] != o.VertexAttributes[i] {
			return false
		}
	}
	return true
}

// Hash computes an FNV-1a hash over every field that takes part in
// Equal. Equal descriptions hash equally; the cache resolves the rare
// collision by structural comparison inside the bucket.
func (d *PipelineDescription) Hash() uint64 {
	h := fnv.New64a()

	hashShaderStage(h, d.VertexShader)
	hashShaderStage(h, d.FragmentShader)

	hashUint32(h, d.VertexStride)
	hashUint32(h, uint32(len(d.VertexAttributes)))
	for _, attr := range d.VertexAttributes {
		hashUint32(h, attr.Location)
		hashUint32(h, uint32(attr.Format))
		hashUint32(h, attr.Offset)
	}

	hashUint32(h, uint32(d.Topology))
	hashUint32(h, uint32(d.CullMode))
	hashUint32(h, uint32(d.FrontFace))
	hashBool(h, d.Wireframe)

	hashBool(h, d.DepthTest)
	hashBool(h, d.DepthWrite)
	hashUint32(h, uint32(d.DepthCompare))

	hashBool(h, d.BlendEnable)
	hashUint32(h, uint32(d.Blend.Color.SrcFactor))
	hashUint32(h, uint32(d.Blend.Color.DstFactor))
	hashUint32(h, uint32(d.Blend.Color.Operation))
	hashUint32(h, uint32(d.Blend.Alpha.SrcFactor))
	hashUint32(h, uint32(d.Blend.Alpha.DstFactor))
	hashUint32(h, uint32(d.Blend.Alpha.Operation))

	hashUint32(h, uint32(d.ColorFormat))
	hashUint32(h, uint32(d.DepthFormat))
	hashUint32(h, d.SampleCount)

	return h.Sum64()
}

// Clone returns a deep copy, so a cached key cannot be mutated through
// the caller's slice.
func (d *PipelineDescription) Clone() PipelineDescription {
	out := *d
	if d.VertexAttributes != nil {
		out.VertexAttributes = make([]VertexAttribute, len(d.VertexAttributes))
		copy(out.VertexAttributes, d.VertexAttributes)
	}
	return out
}

func hashShaderStage(h hash.Hash64, s ShaderStageDescription) {
	h.Write(s.Shader[:])
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], s.FileID)
	h.Write(buf[:])
	hashString(h, s.EntryPoint)
}

func hashUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	h.Write(buf[:])
}

func hashString(h hash.Hash64, s string) {
	hashUint32(h, uint32(len(s)))
	h.Write([]byte(s))
}

func hashBool(h hash.Hash64, v bool) {
	if v {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
}
