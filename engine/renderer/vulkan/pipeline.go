package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/helix-engine/helix/engine/assets"
	"github.com/helix-engine/helix/engine/core"
	"github.com/helix-engine/helix/engine/renderer"
	"github.com/helix-engine/helix/engine/renderer/metadata"
)

// Pipeline holds a compiled Vulkan pipeline and its layout.
type Pipeline struct {
	device vk.Device
	label  string

	handle vk.Pipeline
	layout vk.PipelineLayout
}

func (p *Pipeline) Label() string {
	return p.label
}

// Release destroys the pipeline and its layout. The cache calls this at
// teardown; the object must not be used afterwards.
func (p *Pipeline) Release() {
	if p.handle != nil {
		vk.DestroyPipeline(p.device, p.handle, nil)
		p.handle = nil
	}
	if p.layout != nil {
		vk.DestroyPipelineLayout(p.device, p.layout, nil)
		p.layout = nil
	}
}

// CompilePipeline translates a description into a Vulkan graphics
// pipeline. Implements renderer.Backend.
func (b *Backend) CompilePipeline(desc *metadata.PipelineDescription) (renderer.Pipeline, error) {
	renderPass, err := b.renderPassFor(desc)
	if err != nil {
		return nil, err
	}

	vertStage, err := b.shaderStage(desc.VertexShader, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	defer vk.DestroyShaderModule(b.device, vertStage.Module, nil)

	fragStage, err := b.shaderStage(desc.FragmentShader, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, err
	}
	defer vk.DestroyShaderModule(b.device, fragStage.Module, nil)

	stages := []vk.PipelineShaderStageCreateInfo{vertStage, fragStage}

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    desc.VertexStride,
		InputRate: vk.VertexInputRateVertex,
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(desc.VertexAttributes))
	for i, attr := range desc.VertexAttributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: attr.Location,
			Binding:  0,
			Format:   toVkVertexFormat(attr.Format),
			Offset:   attr.Offset,
		}
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               toVkTopology(desc.Topology),
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport and scissor are dynamic; one of each is still declared.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                toVkCullMode(desc.CullMode),
		FrontFace:               toVkFrontFace(desc.FrontFace),
		DepthBiasEnable:         vk.False,
	}
	if desc.Wireframe {
		rasterizerCreateInfo.PolygonMode = vk.PolygonModeLine
	}

	// Multisampling
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: toVkSampleCount(desc.SampleCount),
		SampleShadingEnable:  vk.False,
		MinSampleShading:     1.0,
	}

	// Depth and stencil testing
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		StencilTestEnable: vk.False,
	}
	if desc.DepthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthCompareOp = toVkCompareOp(desc.DepthCompare)
	}
	if desc.DepthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	// Blending
	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	if desc.BlendEnable {
		colorBlendAttachmentState.BlendEnable = vk.True
		colorBlendAttachmentState.SrcColorBlendFactor = toVkBlendFactor(desc.Blend.Color.SrcFactor)
		colorBlendAttachmentState.DstColorBlendFactor = toVkBlendFactor(desc.Blend.Color.DstFactor)
		colorBlendAttachmentState.ColorBlendOp = toVkBlendOp(desc.Blend.Color.Operation)
		colorBlendAttachmentState.SrcAlphaBlendFactor = toVkBlendFactor(desc.Blend.Alpha.SrcFactor)
		colorBlendAttachmentState.DstAlphaBlendFactor = toVkBlendFactor(desc.Blend.Alpha.DstFactor)
		colorBlendAttachmentState.AlphaBlendOp = toVkBlendOp(desc.Blend.Alpha.Operation)
	}
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
		vk.DynamicStateLineWidth,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	out := &Pipeline{device: b.device, label: desc.Label}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	if res := vk.CreatePipelineLayout(b.device, &pipelineLayoutCreateInfo, nil, &out.layout); res != vk.Success {
		return nil, resultErr("vkCreatePipelineLayout", res)
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              out.layout,
		RenderPass:          renderPass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(
		b.device,
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		nil,
		pipelines); res != vk.Success {
		out.Release()
		return nil, resultErr("vkCreateGraphicsPipelines", res)
	}
	out.handle = pipelines[0]

	core.LogDebug("graphics pipeline '%s' created", desc.Label)
	return out, nil
}

// shaderStage loads the referenced shader asset and wraps it in a
// Vulkan shader module.
func (b *Backend) shaderStage(stage metadata.ShaderStageDescription, flag vk.ShaderStageFlagBits) (vk.PipelineShaderStageCreateInfo, error) {
	var out vk.PipelineShaderStageCreateInfo

	if stage.Shader.IsZero() {
		return out, fmt.Errorf("pipeline references no shader asset")
	}
	obj, err := b.provider.Load(stage.Shader, stage.FileID)
	if err != nil {
		return out, fmt.Errorf("load shader %s[%d]: %w", stage.Shader, stage.FileID, err)
	}
	shader, ok := obj.(*assets.Shader)
	if !ok {
		return out, fmt.Errorf("%w: asset %s[%d] is %T, not a shader", core.ErrAssetTypeMismatch, stage.Shader, stage.FileID, obj)
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(shader.SPIRV)),
		PCode:    repackUint32(shader.SPIRV),
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(b.device, &createInfo, nil, &module); res != vk.Success {
		return out, resultErr("vkCreateShaderModule", res)
	}

	entryPoint := stage.EntryPoint
	if entryPoint == "" {
		entryPoint = "main"
	}
	out = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  flag,
		Module: module,
		PName:  safeString(entryPoint),
	}
	return out, nil
}
