package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helix-engine/helix/engine/assets"
)

func baseDescription() PipelineDescription {
	return PipelineDescription{
		Label:        "base",
		VertexShader: ShaderStageDescription{Shader: assets.NewID(), EntryPoint: "main"},
		VertexStride: 20,
		VertexAttributes: []VertexAttribute{
			{Location: 0, Format: VertexFormatFloat32x3, Offset: 0},
			{Location: 1, Format: VertexFormatFloat32x2, Offset: 12},
		},
		Topology:     TopologyTriangleList,
		CullMode:     FaceCullModeBack,
		DepthTest:    true,
		DepthCompare: CompareOpLess,
		ColorFormat:  TextureFormatBGRA8Unorm,
		DepthFormat:  TextureFormatD32Float,
		SampleCount:  4,
	}
}

func TestPipelineDescriptionEqualAndHash(t *testing.T) {
	a := baseDescription()
	b := a.Clone()

	assert.True(t, a.Equal(&b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestPipelineDescriptionLabelIsCosmetic(t *testing.T) {
	a := baseDescription()
	b := a.Clone()
	b.Label = "something else entirely"

	assert.True(t, a.Equal(&b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestPipelineDescriptionFieldChangesBreakEquality(t *testing.T) {
	base := baseDescription()

	mutations := map[string]func(*PipelineDescription){
		"shader":          func(d *PipelineDescription) { d.VertexShader.Shader = assets.NewID() },
		"entry point":     func(d *PipelineDescription) { d.VertexShader.EntryPoint = "vs_main" },
		"stride":          func(d *PipelineDescription) { d.VertexStride = 24 },
		"attribute":       func(d *PipelineDescription) { d.VertexAttributes[1].Offset = 16 },
		"fewer attrs":     func(d *PipelineDescription) { d.VertexAttributes = d.VertexAttributes[:1] },
		"topology":        func(d *PipelineDescription) { d.Topology = TopologyLineList },
		"cull mode":       func(d *PipelineDescription) { d.CullMode = FaceCullModeNone },
		"wireframe":       func(d *PipelineDescription) { d.Wireframe = true },
		"depth write":     func(d *PipelineDescription) { d.DepthWrite = true },
		"blend":           func(d *PipelineDescription) { d.BlendEnable = true },
		"blend component": func(d *PipelineDescription) { d.Blend.Color.SrcFactor = BlendFactorSrcAlpha },
		"color format":    func(d *PipelineDescription) { d.ColorFormat = TextureFormatRGBA8Unorm },
		"sample count":    func(d *PipelineDescription) { d.SampleCount = 1 },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			other := base.Clone()
			mutate(&other)
			assert.False(t, base.Equal(&other))
			assert.NotEqual(t, base.Hash(), other.Hash())
		})
	}
}

func TestPipelineDescriptionCloneIsIndependent(t *testing.T) {
	a := baseDescription()
	b := a.Clone()
	require.True(t, a.Equal(&b))

	b.VertexAttributes[0].Location = 9
	assert.False(t, a.Equal(&b), "mutating the clone's attributes must not alias the original")
	assert.Equal(t, uint32(0), a.VertexAttributes[0].Location)
}

func TestPipelineDescriptionNilEquality(t *testing.T) {
	a := baseDescription()
	assert.False(t, a.Equal(nil))

	var nilDesc *PipelineDescription
	assert.True(t, nilDesc.Equal(nil))
}
