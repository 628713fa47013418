// Package vulkan implements renderer.Backend on top of goki/vulkan: one
// device, one graphics queue, a swapchain presenting to a window surface and
// two frames in flight.
package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// VulkanBackend must be used from the thread running the event loop.
type VulkanBackend struct {
	surface     Surface
	config      Config
	context     *VulkanContext
	descriptors *VulkanDescriptorSetConfig

	// Graphs submitted on each frame slot, released once its fence signals.
	pending [MAX_FRAMES_IN_FLIGHT]*renderer.Graph
	// Image acquired but not yet submitted. Its semaphore is signaled and
	// must be waited on before the slot is used again.
	acquired *renderer.SwapchainImage
	// Last clear color seen, used to present frames that were dropped.
	clearColor renderer.Color

	FrameNumber uint64
}

func New(surface Surface, cfg Config) (*VulkanBackend, error) {
	if cfg.DesiredImageCount == 0 {
		cfg.DesiredImageCount = DEFAULT_IMAGE_COUNT
	}
	if cfg.MaxTextures == 0 {
		cfg.MaxTextures = DEFAULT_MAX_TEXTURES
	}
	vb := &VulkanBackend{
		surface: surface,
		config:  cfg,
		context: &VulkanContext{},
	}
	if err := vb.initialize(); err != nil {
		vb.Shutdown()
		return nil, err
	}
	return vb, nil
}

func (vb *VulkanBackend) initialize() error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}

	context := vb.context
	context.FramebufferWidth, context.FramebufferHeight = vb.surface.FramebufferSize()

	if err := vb.createInstance(); err != nil {
		return err
	}

	if vb.config.Debug {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vulkanError(vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, context.Allocator, &dbg), "vkCreateDebugReportCallbackEXT"); err != nil {
			return err
		}
		context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vb.surface.CreateSurface(context.Instance)
	if err != nil {
		core.LogError("Failed to create platform surface: %s", err)
		return err
	}
	context.Surface = surface
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(context); err != nil {
		return err
	}

	sc, err := SwapchainCreate(context, context.FramebufferWidth, context.FramebufferHeight, &vb.config)
	if err != nil {
		return err
	}
	context.Swapchain = sc
	context.FramebufferWidth, context.FramebufferHeight = sc.Extent.Width, sc.Extent.Height

	if context.ClearRenderpass, err = RenderpassCreate(context, sc.ImageFormat.Format, true); err != nil {
		return err
	}
	if context.LoadRenderpass, err = RenderpassCreate(context, sc.ImageFormat.Format, false); err != nil {
		return err
	}

	if err := vb.regenerateFramebuffers(); err != nil {
		return err
	}

	if vb.descriptors, err = NewDescriptorSetConfig(context, vb.config.MaxTextures); err != nil {
		return err
	}

	if err := vb.createCommandBuffers(); err != nil {
		return err
	}

	if err := vb.createSyncObjects(); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vb *VulkanBackend) createInstance() error {
	context := vb.context

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vb.config.AppName),
		PEngineName:        VulkanSafeString("anima2d"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := append([]string{}, vb.surface.RequiredInstanceExtensions()...)
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	if vb.config.Debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}
	core.LogDebug("Required extensions: %v", requiredExtensions)

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers should only be enabled on non-release builds.
	var validationLayers []string
	if vb.config.Debug {
		core.LogInfo("Validation layers enabled. Enumerating...")
		validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

		var availableLayerCount uint32
		if err := vulkanError(vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil), "vkEnumerateInstanceLayerProperties"); err != nil {
			return err
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if err := vulkanError(vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers), "vkEnumerateInstanceLayerProperties"); err != nil {
			return err
		}

		for _, required := range validationLayers {
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				if FixedString(availableLayers[j].LayerName[:]) == required {
					found = true
					break
				}
			}
			if !found {
				err := fmt.Errorf("required validation layer is missing: %s", required)
				core.LogError(err.Error())
				return err
			}
		}
		core.LogInfo("All required validation layers are present.")
	}
	createInfo.EnabledLayerCount = uint32(len(validationLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(validationLayers)

	var instance vk.Instance
	if err := vulkanError(vk.CreateInstance(&createInfo, context.Allocator, &instance), "vkCreateInstance"); err != nil {
		return err
	}
	context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("Vulkan Instance created.")
	return nil
}

func (vb *VulkanBackend) createSyncObjects() error {
	context := vb.context
	device := context.Device.LogicalDevice

	context.ImageAvailableSemaphores = make([]vk.Semaphore, MAX_FRAMES_IN_FLIGHT)
	context.QueueCompleteSemaphores = make([]vk.Semaphore, MAX_FRAMES_IN_FLIGHT)
	context.InFlightFences = make([]*VulkanFence, MAX_FRAMES_IN_FLIGHT)

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	for i := uint32(0); i < MAX_FRAMES_IN_FLIGHT; i++ {
		var available, complete vk.Semaphore
		if err := vulkanError(vk.CreateSemaphore(device, &semaphoreCreateInfo, context.Allocator, &available), "vkCreateSemaphore"); err != nil {
			return err
		}
		context.ImageAvailableSemaphores[i] = available
		if err := vulkanError(vk.CreateSemaphore(device, &semaphoreCreateInfo, context.Allocator, &complete), "vkCreateSemaphore"); err != nil {
			return err
		}
		context.QueueCompleteSemaphores[i] = complete

		// Create the fence in a signaled state, indicating that the first frame has already been "rendered".
		// This will prevent the application from waiting indefinitely for the first frame to render since it
		// cannot be rendered until a frame is "rendered" before it.
		f, err := NewFence(context, true)
		if err != nil {
			return err
		}
		context.InFlightFences[i] = f
	}

	// Fences here are owned by InFlightFences.
	context.ImagesInFlight = make([]*VulkanFence, context.Swapchain.ImageCount)
	return nil
}

func (vb *VulkanBackend) createCommandBuffers() error {
	context := vb.context
	context.GraphicsCommandBuffers = make([]*VulkanCommandBuffer, MAX_FRAMES_IN_FLIGHT)
	for i := range context.GraphicsCommandBuffers {
		cb, err := NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		context.GraphicsCommandBuffers[i] = cb
	}
	core.LogDebug("Vulkan command buffers created.")
	return nil
}

func (vb *VulkanBackend) regenerateFramebuffers() error {
	context := vb.context
	swapchain := context.Swapchain
	swapchain.Framebuffers = make([]*VulkanFramebuffer, swapchain.ImageCount)
	for i := range swapchain.Views {
		fb, err := FramebufferCreate(context, context.LoadRenderpass, swapchain.Extent.Width, swapchain.Extent.Height, []vk.ImageView{swapchain.Views[i]})
		if err != nil {
			return err
		}
		swapchain.Framebuffers[i] = fb
	}
	return nil
}

// recreateSwapchain applies the cached size. It reports false when the window
// is too small to be drawn to.
func (vb *VulkanBackend) recreateSwapchain() (bool, error) {
	context := vb.context
	if context.RecreatingSwapchain {
		core.LogDebug("recreate_swapchain called when already recreating. Booting.")
		return false, nil
	}
	width, height := context.CachedFramebufferWidth, context.CachedFramebufferHeight
	if width == 0 || height == 0 {
		core.LogDebug("recreate_swapchain called when window is < 1 in a dimension. Booting.")
		return false, nil
	}

	context.RecreatingSwapchain = true
	defer func() { context.RecreatingSwapchain = false }()

	if err := vb.WaitIdle(); err != nil {
		return false, err
	}

	for i := range context.ImagesInFlight {
		context.ImagesInFlight[i] = nil
	}

	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, &context.Device.SwapchainSupport); err != nil {
		return false, err
	}

	sc, err := context.Swapchain.SwapchainRecreate(context, width, height, &vb.config)
	if err != nil {
		return false, err
	}
	context.Swapchain = sc
	context.FramebufferWidth, context.FramebufferHeight = sc.Extent.Width, sc.Extent.Height
	context.FramebufferSizeLastGeneration = context.FramebufferSizeGeneration

	if err := vb.regenerateFramebuffers(); err != nil {
		return false, err
	}
	if uint32(len(context.ImagesInFlight)) != sc.ImageCount {
		context.ImagesInFlight = make([]*VulkanFence, sc.ImageCount)
	}

	core.LogInfo("Swapchain recreated at %dx%d.", context.FramebufferWidth, context.FramebufferHeight)
	return true, nil
}

func (vb *VulkanBackend) CreateBuffer(usage renderer.BufferUsage, data []byte) (renderer.Buffer, error) {
	return NewBuffer(vb, usage, data)
}

func (vb *VulkanBackend) CreateTexture(width, height uint32) (renderer.Texture, error) {
	return ImageCreate(vb, width, height)
}

func (vb *VulkanBackend) CreatePipeline(desc renderer.PipelineDesc) (renderer.Pipeline, error) {
	context := vb.context

	config, err := pipelineConfigFromDesc(desc, context.LoadRenderpass, vb.descriptors.Layout)
	if err != nil {
		return nil, err
	}

	vertex, err := NewShaderStage(context, desc.Name+".vert", desc.VertexShader, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	defer vertex.Destroy(context)
	fragment, err := NewShaderStage(context, desc.Name+".frag", desc.FragmentShader, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, err
	}
	defer fragment.Destroy(context)
	config.Stages = []vk.PipelineShaderStageCreateInfo{vertex.ShaderStageCreateInfo, fragment.ShaderStageCreateInfo}

	pipeline, err := NewGraphicsPipeline(context, config)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", desc.Name, err)
	}
	pipeline.backend = vb
	pipeline.desc = desc
	core.LogDebug("Pipeline `%s` created.", desc.Name)
	return pipeline, nil
}

// SetSwapchainSize bumps the size generation; the swapchain is recreated on
// the next acquire.
func (vb *VulkanBackend) SetSwapchainSize(width, height uint32) error {
	context := vb.context
	context.CachedFramebufferWidth = width
	context.CachedFramebufferHeight = height
	context.FramebufferSizeGeneration++
	core.LogInfo("Vulkan renderer backend->resized: w/h/gen: %d/%d/%d", width, height, context.FramebufferSizeGeneration)
	return nil
}

// SwapchainSize returns the requested size while a resize is pending.
func (vb *VulkanBackend) SwapchainSize() (uint32, uint32) {
	context := vb.context
	if context.FramebufferSizeGeneration != context.FramebufferSizeLastGeneration {
		return context.CachedFramebufferWidth, context.CachedFramebufferHeight
	}
	return context.FramebufferWidth, context.FramebufferHeight
}

// releasePending drops the graph submitted on a frame slot whose fence has signaled.
func (vb *VulkanBackend) releasePending(frame uint32) {
	if g := vb.pending[frame]; g != nil {
		g.Release()
		vb.pending[frame] = nil
	}
}

// presentDropped hands back an image whose frame was discarded or failed to
// submit, cleared to the last clear color.
func (vb *VulkanBackend) presentDropped() error {
	target := *vb.acquired
	core.LogDebug("Presenting dropped frame on image %d", target.Index)
	graph := renderer.NewGraph()
	graph.Add(&renderer.ClearCommand{Target: target, Color: vb.clearColor})
	return vb.Submit(graph, target)
}

func (vb *VulkanBackend) AcquireNextImage() (renderer.SwapchainImage, error) {
	context := vb.context

	if vb.acquired != nil {
		if err := vb.presentDropped(); err != nil {
			return renderer.SwapchainImage{}, err
		}
	}

	// Check if the framebuffer has been resized. If so, a new swapchain must be created.
	if context.FramebufferSizeGeneration != context.FramebufferSizeLastGeneration {
		ok, err := vb.recreateSwapchain()
		if err != nil {
			return renderer.SwapchainImage{}, err
		}
		if !ok {
			return renderer.SwapchainImage{}, fmt.Errorf("%w: %w", core.ErrNoImageAvailable, core.ErrSwapchainBooting)
		}
	}

	// Wait for the execution of the current frame to complete. The fence being free will allow this one to move on.
	frame := context.CurrentFrame
	if err := context.InFlightFences[frame].FenceWait(context, vk.MaxUint64); err != nil {
		return renderer.SwapchainImage{}, err
	}
	vb.releasePending(frame)

	// Acquire the next image from the swap chain. Pass along the semaphore that should signaled when this completes.
	// This same semaphore will later be waited on by the queue submission to ensure this image is available.
	imageIndex, result := context.Swapchain.SwapchainAcquireNextImageIndex(context, vk.MaxUint64, context.ImageAvailableSemaphores[frame], vk.NullFence)
	switch result {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		// Trigger swapchain recreation, then boot out of the render loop.
		context.CachedFramebufferWidth, context.CachedFramebufferHeight = vb.surface.FramebufferSize()
		context.FramebufferSizeGeneration++
		return renderer.SwapchainImage{}, fmt.Errorf("%w: %s", core.ErrNoImageAvailable, VulkanResultString(result, false))
	default:
		return renderer.SwapchainImage{}, vulkanError(result, "vkAcquireNextImageKHR")
	}
	context.ImageIndex = imageIndex

	target := renderer.SwapchainImage{
		Index:  imageIndex,
		Width:  context.Swapchain.Extent.Width,
		Height: context.Swapchain.Extent.Height,
	}
	vb.acquired = &target
	return target, nil
}

func (vb *VulkanBackend) Submit(graph *renderer.Graph, target renderer.SwapchainImage) error {
	context := vb.context
	frame := context.CurrentFrame

	if target.Index >= context.Swapchain.ImageCount {
		graph.Release()
		return fmt.Errorf("swapchain image %d out of range", target.Index)
	}

	commandBuffer := context.GraphicsCommandBuffers[frame]
	if err := vb.recordFrame(commandBuffer, graph, target); err != nil {
		graph.Release()
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{commandBuffer.Handle},
		// The semaphore(s) to be signaled when the queue is complete.
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{context.QueueCompleteSemaphores[frame]},
		// Wait semaphore ensures that the operation cannot begin until the image is available.
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{context.ImageAvailableSemaphores[frame]},
		// Uploads in the graph run in the transfer stage before the semaphore is needed.
		PWaitDstStageMask: []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
	}
	err := submitWithFence(context, frame, target.Index, func(fence vk.Fence) error {
		return vulkanError(vk.QueueSubmit(context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence), "vkQueueSubmit")
	})
	if err != nil {
		graph.Release()
		return err
	}
	commandBuffer.UpdateSubmitted()
	vb.pending[frame] = graph
	vb.acquired = nil
	vb.FrameNumber++

	// Give the image back to the swapchain.
	return context.Swapchain.SwapchainPresent(context, context.Device.PresentQueue, context.QueueCompleteSemaphores[frame], target.Index)
}

// submitWithFence resets the frame's fence, marks the image as used by it
// and calls submit with it. When submit fails nothing will ever signal the
// fence, so the frame slot and the image are rolled back to their previous
// state and later waits on the fence return at once.
func submitWithFence(context *VulkanContext, frame, imageIndex uint32, submit func(fence vk.Fence) error) error {
	fence := context.InFlightFences[frame]

	// Make sure the previous frame is not using this image (i.e. its fence is being waited on)
	previous := context.ImagesInFlight[imageIndex]
	if previous != nil && previous != fence {
		if err := previous.FenceWait(context, vk.MaxUint64); err != nil {
			return err
		}
	}
	if err := fence.FenceReset(context); err != nil {
		return err
	}
	// Mark the image fence as in-use by this frame.
	context.ImagesInFlight[imageIndex] = fence

	if err := submit(fence.Handle); err != nil {
		context.ImagesInFlight[imageIndex] = previous
		// The frame's fence was waited on before the reset, so no work is pending.
		fence.IsSignaled = true
		return err
	}
	return nil
}

// recordFrame translates the graph into the frame's command buffer. Every
// pass is its own render pass on the target image.
func (vb *VulkanBackend) recordFrame(commandBuffer *VulkanCommandBuffer, graph *renderer.Graph, target renderer.SwapchainImage) error {
	context := vb.context
	if err := commandBuffer.Reset(); err != nil {
		return err
	}
	if err := commandBuffer.Begin(true, false, false); err != nil {
		return err
	}

	image := context.Swapchain.Images[target.Index]
	framebuffer := context.Swapchain.Framebuffers[target.Index].Handle
	extent := context.Swapchain.Extent
	layout := vk.ImageLayoutUndefined

	for _, cmd := range graph.Commands() {
		switch c := cmd.(type) {
		case *renderer.ClearCommand:
			vb.clearColor = c.Color
			context.ClearRenderpass.RenderpassBegin(commandBuffer, framebuffer, extent, c.Color)
			context.ClearRenderpass.RenderpassEnd(commandBuffer)
			layout = vk.ImageLayoutColorAttachmentOptimal
		case *renderer.CopyBufferToImageCommand:
			vb.recordCopy(commandBuffer, c)
		case *renderer.PassCommand:
			if layout != vk.ImageLayoutColorAttachmentOptimal {
				ImageTransitionLayout(commandBuffer, image, layout, vk.ImageLayoutColorAttachmentOptimal)
				layout = vk.ImageLayoutColorAttachmentOptimal
			}
			if err := vb.recordPass(commandBuffer, c, framebuffer, extent); err != nil {
				return err
			}
		}
	}

	ImageTransitionLayout(commandBuffer, image, layout, vk.ImageLayoutPresentSrc)
	return commandBuffer.End()
}

func (vb *VulkanBackend) recordCopy(commandBuffer *VulkanCommandBuffer, c *renderer.CopyBufferToImageCommand) {
	src := c.Src.(*VulkanBuffer)
	dst := c.Dst.(*VulkanImage)
	dst.CopyFromBuffer(commandBuffer, src.Handle)
}

func (vb *VulkanBackend) recordPass(commandBuffer *VulkanCommandBuffer, pass *renderer.PassCommand, framebuffer vk.Framebuffer, extent vk.Extent2D) error {
	pipeline, ok := pass.Pipeline.(*VulkanPipeline)
	if !ok {
		return fmt.Errorf("pass %s: pipeline is not a vulkan pipeline", pass.Name)
	}
	cb := commandBuffer.Handle

	vb.context.LoadRenderpass.RenderpassBegin(commandBuffer, framebuffer, extent, renderer.ColorTransparent)

	// Dynamic state
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{scissor})

	pipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)

	vertices := pass.VertexBuffer.(*VulkanBuffer)
	vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{vertices.Handle}, []vk.DeviceSize{0})

	if pass.Texture != nil {
		texture := pass.Texture.(*VulkanImage)
		vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, pipeline.PipelineLayout, 0, 1, []vk.DescriptorSet{texture.DescriptorSet}, 0, nil)
	}

	pc := pass.PushConstants
	vk.CmdPushConstants(cb, pipeline.PipelineLayout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, renderer.PushConstantSize, unsafe.Pointer(&pc[0]))

	if pass.Indexed() {
		indices := pass.IndexBuffer.(*VulkanBuffer)
		vk.CmdBindIndexBuffer(cb, indices.Handle, 0, vk.IndexTypeUint16)
		vk.CmdDrawIndexed(cb, pass.IndexCount, 1, 0, 0, 0)
	} else {
		vk.CmdDraw(cb, pass.VertexCount, 1, 0, 0)
	}

	vb.context.LoadRenderpass.RenderpassEnd(commandBuffer)
	return nil
}

// SubmitUpload runs the copies of graph on a single use command buffer and
// waits for the queue.
func (vb *VulkanBackend) SubmitUpload(graph *renderer.Graph) error {
	defer graph.Release()
	context := vb.context

	commandBuffer, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	for _, cmd := range graph.Commands() {
		switch c := cmd.(type) {
		case *renderer.CopyBufferToImageCommand:
			vb.recordCopy(commandBuffer, c)
		default:
			core.LogWarn("upload graph ignores %T", cmd)
		}
	}
	return commandBuffer.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue)
}

// WaitIdle waits for the device and releases every pending graph.
func (vb *VulkanBackend) WaitIdle() error {
	if vb.context.Device == nil || vb.context.Device.LogicalDevice == nil {
		return nil
	}
	if err := vulkanError(vk.DeviceWaitIdle(vb.context.Device.LogicalDevice), "vkDeviceWaitIdle"); err != nil {
		return err
	}
	for i := range vb.pending {
		vb.releasePending(uint32(i))
	}
	return nil
}

// Shutdown destroys everything in the opposite order of creation. Resources
// handed out by the backend must have been released before.
func (vb *VulkanBackend) Shutdown() error {
	context := vb.context
	var errs []error
	if err := vb.WaitIdle(); err != nil {
		errs = append(errs, err)
	}

	if context.Device != nil && context.Device.LogicalDevice != nil {
		device := context.Device.LogicalDevice

		for i := range context.ImageAvailableSemaphores {
			if context.ImageAvailableSemaphores[i] != vk.NullSemaphore {
				vk.DestroySemaphore(device, context.ImageAvailableSemaphores[i], context.Allocator)
			}
		}
		for i := range context.QueueCompleteSemaphores {
			if context.QueueCompleteSemaphores[i] != vk.NullSemaphore {
				vk.DestroySemaphore(device, context.QueueCompleteSemaphores[i], context.Allocator)
			}
		}
		for _, f := range context.InFlightFences {
			if f != nil {
				f.FenceDestroy(context)
			}
		}
		context.ImageAvailableSemaphores = nil
		context.QueueCompleteSemaphores = nil
		context.InFlightFences = nil
		context.ImagesInFlight = nil

		for _, cb := range context.GraphicsCommandBuffers {
			if cb != nil {
				cb.Free(context, context.Device.GraphicsCommandPool)
			}
		}
		context.GraphicsCommandBuffers = nil

		if vb.descriptors != nil {
			vb.descriptors.Destroy(context)
			vb.descriptors = nil
		}

		if context.Swapchain != nil {
			context.Swapchain.SwapchainDestroy(context)
			context.Swapchain = nil
		}
		for _, rp := range []*VulkanRenderpass{context.ClearRenderpass, context.LoadRenderpass} {
			if rp != nil {
				rp.RenderpassDestroy(context)
			}
		}
		context.ClearRenderpass, context.LoadRenderpass = nil, nil
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(context)

	if context.Instance != nil {
		if context.Surface != vk.NullSurface {
			core.LogDebug("Destroying Vulkan surface...")
			vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
			context.Surface = vk.NullSurface
		}
		if context.debugMessenger != vk.NullDebugReportCallback {
			core.LogDebug("Destroying Vulkan debugger...")
			vk.DestroyDebugReportCallback(context.Instance, context.debugMessenger, context.Allocator)
			context.debugMessenger = vk.NullDebugReportCallback
		}
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}

	return errors.Join(errs...)
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
