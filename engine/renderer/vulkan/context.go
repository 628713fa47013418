package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// Config holds the renderer section of the application configuration.
type Config struct {
	AppName string
	// Enables the Khronos validation layer and the debug report callback.
	Debug             bool
	VSync             bool
	DesiredImageCount uint32
	// Size of the descriptor pool, i.e. how many textures can be alive at once.
	MaxTextures uint32
}

func DefaultConfig() Config {
	return Config{
		AppName:           "anima2d",
		VSync:             true,
		DesiredImageCount: DEFAULT_IMAGE_COUNT,
		MaxTextures:       DEFAULT_MAX_TEXTURES,
	}
}

// Surface is the windowing side of the backend: it knows which instance
// extensions it needs and how to create a presentable surface.
type Surface interface {
	renderer.Window
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type VulkanContext struct {
	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Current generation of framebuffer size. If it does not match FramebufferSizeLastGeneration,
	// the swapchain is recreated on the next acquire.
	FramebufferSizeGeneration uint64
	// The generation of the framebuffer when it was last created.
	FramebufferSizeLastGeneration uint64
	// Requested size, applied when the swapchain is recreated.
	CachedFramebufferWidth  uint32
	CachedFramebufferHeight uint32

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	Swapchain *VulkanSwapchain
	// Clears the swapchain image, leaving it ready for more passes.
	ClearRenderpass *VulkanRenderpass
	// Draws on top of whatever the image holds.
	LoadRenderpass *VulkanRenderpass

	GraphicsCommandBuffers []*VulkanCommandBuffer

	ImageAvailableSemaphores []vk.Semaphore
	QueueCompleteSemaphores  []vk.Semaphore

	InFlightFences []*VulkanFence
	// Holds pointers to fences which exist and are owned elsewhere.
	ImagesInFlight []*VulkanFence

	ImageIndex   uint32
	CurrentFrame uint32

	RecreatingSwapchain bool
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
		// Check each memory type to see if its bit is set to 1.
		if (typeFilter&(1<<i)) != 0 && memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
