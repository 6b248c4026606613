package vulkan

import (
	"fmt"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/helix-engine/helix/engine/assets"
	"github.com/helix-engine/helix/engine/core"
	"github.com/helix-engine/helix/engine/renderer/metadata"
)

// Config carries what the backend needs from the platform layer. The
// proc address comes from the windowing system so this package stays
// free of a GLFW dependency.
type Config struct {
	AppName string
	// ProcAddr is the vkGetInstanceProcAddr pointer, e.g. from
	// platform.VulkanProcAddr.
	ProcAddr unsafe.Pointer
	// Extensions are the instance extensions the platform requires.
	Extensions []string
}

// renderPassKey identifies the minimal render pass a pipeline is
// compiled against.
type renderPassKey struct {
	color   metadata.TextureFormat
	depth   metadata.TextureFormat
	samples uint32
}

// Backend compiles pipeline descriptions into Vulkan pipeline objects.
// It owns the instance, device and the render passes pipelines are
// compiled against.
type Backend struct {
	provider assets.Provider

	instance vk.Instance
	gpu      vk.PhysicalDevice
	device   vk.Device

	graphicsQueueIndex uint32
	graphicsQueue      vk.Queue

	passMu sync.Mutex
	passes map[renderPassKey]vk.RenderPass
}

// New bootstraps a Vulkan instance and logical device. provider is
// where shader modules referenced by pipeline descriptions are loaded
// from.
func New(config Config, provider assets.Provider) (*Backend, error) {
	if config.ProcAddr == nil {
		return nil, fmt.Errorf("vulkan: nil GetInstanceProcAddr")
	}
	vk.SetGetInstanceProcAddr(config.ProcAddr)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vulkan: init failed: %w", err)
	}

	b := &Backend{
		provider: provider,
		passes:   make(map[renderPassKey]vk.RenderPass),
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   safeString(config.AppName),
		PEngineName:        safeString("Helix Engine"),
	}

	extensions := append([]string{"VK_KHR_surface"}, config.Extensions...)
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}

	if res := vk.CreateInstance(&createInfo, nil, &b.instance); res != vk.Success {
		return nil, resultErr("vkCreateInstance", res)
	}
	if err := vk.InitInstance(b.instance); err != nil {
		return nil, err
	}
	core.LogInfo("Vulkan instance created.")

	if err := b.selectDevice(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) selectDevice() error {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(b.instance, &count, nil); res != vk.Success {
		return resultErr("vkEnumeratePhysicalDevices", res)
	}
	if count == 0 {
		return fmt.Errorf("vulkan: no physical devices found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(b.instance, &count, devices); res != vk.Success {
		return resultErr("vkEnumeratePhysicalDevices", res)
	}

	for _, device := range devices {
		var familyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(device, &familyCount, nil)
		families := make([]vk.QueueFamilyProperties, familyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(device, &familyCount, families)

		for i := range families {
			families[i].Deref()
			if families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
				continue
			}
			b.gpu = device
			b.graphicsQueueIndex = uint32(i)
			return b.createDevice()
		}
	}
	return fmt.Errorf("vulkan: no device with a graphics queue")
}

func (b *Backend) createDevice() error {
	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: b.graphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{}
	deviceFeatures.SamplerAnisotropy = vk.True
	deviceFeatures.FillModeNonSolid = vk.True // wireframe pipelines

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueCreateInfo},
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   1,
		PpEnabledExtensionNames: safeStrings([]string{vk.KhrSwapchainExtensionName}),
	}

	if res := vk.CreateDevice(b.gpu, &deviceCreateInfo, nil, &b.device); res != vk.Success {
		return resultErr("vkCreateDevice", res)
	}
	vk.GetDeviceQueue(b.device, b.graphicsQueueIndex, 0, &b.graphicsQueue)
	core.LogInfo("Logical device created.")
	return nil
}

// renderPassFor returns (creating on first use) the render pass
// matching the description's attachment formats.
func (b *Backend) renderPassFor(desc *metadata.PipelineDescription) (vk.RenderPass, error) {
	key := renderPassKey{desc.ColorFormat, desc.DepthFormat, desc.SampleCount}

	b.passMu.Lock()
	defer b.passMu.Unlock()
	if pass, ok := b.passes[key]; ok {
		return pass, nil
	}

	samples := toVkSampleCount(desc.SampleCount)
	attachments := []vk.AttachmentDescription{{
		Format:         toVkFormat(desc.ColorFormat),
		Samples:        samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorRef},
	}

	if desc.DepthFormat != metadata.TextureFormatUndefined {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         toVkFormat(desc.DepthFormat),
			Samples:        samples,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var pass vk.RenderPass
	if res := vk.CreateRenderPass(b.device, &createInfo, nil, &pass); res != vk.Success {
		return vk.NullRenderPass, resultErr("vkCreateRenderPass", res)
	}
	b.passes[key] = pass
	return pass, nil
}

// Shutdown destroys device-level objects. The pipeline cache must be
// disposed before this runs.
func (b *Backend) Shutdown() {
	if b.device != nil {
		vk.DeviceWaitIdle(b.device)
	}
	b.passMu.Lock()
	for key, pass := range b.passes {
		vk.DestroyRenderPass(b.device, pass, nil)
		delete(b.passes, key)
	}
	b.passMu.Unlock()
	if b.device != nil {
		vk.DestroyDevice(b.device, nil)
		b.device = nil
	}
	if b.instance != nil {
		vk.DestroyInstance(b.instance, nil)
		b.instance = nil
	}
	core.LogInfo("Vulkan backend shut down.")
}
