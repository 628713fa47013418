package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
)

// VulkanImage is a device local RGBA8 sRGB image with its view and the
// descriptor set that samples it. It implements renderer.Texture.
type VulkanImage struct {
	backend *VulkanBackend

	Handle        vk.Image
	Memory        vk.DeviceMemory
	View          vk.ImageView
	DescriptorSet vk.DescriptorSet
	width         uint32
	height        uint32
	// Layout the image is in once the last recorded command has run.
	Layout vk.ImageLayout
}

func ImageCreate(b *VulkanBackend, width, height uint32) (*VulkanImage, error) {
	context := b.context
	device := context.Device.LogicalDevice
	image := &VulkanImage{
		backend: b,
		width:   width,
		height:  height,
		Layout:  vk.ImageLayoutUndefined,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    TEXTURE_FORMAT,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         TEXTURE_USAGE,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var handle vk.Image
	if res := vk.CreateImage(device, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, allocationError("vkCreateImage", res)
	}
	image.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, handle, &requirements)
	requirements.Deref()

	memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if memoryIndex < 0 {
		image.ImageDestroy()
		return nil, fmt.Errorf("no device local memory for a %dx%d image: %w", width, height, core.ErrAllocationFailed)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(device, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		image.ImageDestroy()
		return nil, allocationError("vkAllocateMemory", res)
	}
	image.Memory = memory

	if res := vk.BindImageMemory(device, handle, memory, 0); res != vk.Success {
		image.ImageDestroy()
		return nil, allocationError("vkBindImageMemory", res)
	}

	view, err := createImageView(context, handle, TEXTURE_FORMAT)
	if err != nil {
		image.ImageDestroy()
		return nil, fmt.Errorf("texture view: %w", core.ErrAllocationFailed)
	}
	image.View = view

	set, err := b.descriptors.Allocate(context, view)
	if err != nil {
		image.ImageDestroy()
		return nil, fmt.Errorf("texture descriptor set: %w", core.ErrAllocationFailed)
	}
	image.DescriptorSet = set

	return image, nil
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := vulkanError(vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &view), "vkCreateImageView"); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

// ImageTransitionLayout records a barrier moving a color image between layouts.
func ImageTransitionLayout(commandBuffer *VulkanCommandBuffer, image vk.Image, oldLayout, newLayout vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	srcStage, srcAccess := layoutStageAccess(oldLayout)
	dstStage, dstAccess := layoutStageAccess(newLayout)
	barrier.SrcAccessMask = srcAccess
	barrier.DstAccessMask = dstAccess

	vk.CmdPipelineBarrier(commandBuffer.Handle, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func layoutStageAccess(layout vk.ImageLayout) (vk.PipelineStageFlags, vk.AccessFlags) {
	switch layout {
	case vk.ImageLayoutTransferDstOptimal:
		return vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.AccessFlags(vk.AccessTransferWriteBit)
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), vk.AccessFlags(vk.AccessShaderReadBit)
	case vk.ImageLayoutColorAttachmentOptimal:
		return vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	case vk.ImageLayoutPresentSrc:
		return vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit), 0
	default:
		return vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), 0
	}
}

// CopyFromBuffer records the upload of tightly packed pixels into the image,
// leaving it ready to be sampled.
func (vi *VulkanImage) CopyFromBuffer(commandBuffer *VulkanCommandBuffer, buffer vk.Buffer) {
	ImageTransitionLayout(commandBuffer, vi.Handle, vi.Layout, vk.ImageLayoutTransferDstOptimal)

	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: vi.width, Height: vi.height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(commandBuffer.Handle, buffer, vi.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})

	ImageTransitionLayout(commandBuffer, vi.Handle, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	vi.Layout = vk.ImageLayoutShaderReadOnlyOptimal
}

func (vi *VulkanImage) Width() uint32 {
	return vi.width
}

func (vi *VulkanImage) Height() uint32 {
	return vi.height
}

// Release destroys the image. The renderer only calls it once no pending
// submission references the texture.
func (vi *VulkanImage) Release() {
	if vi.backend == nil {
		return
	}
	vi.ImageDestroy()
	vi.backend = nil
}

func (vi *VulkanImage) ImageDestroy() {
	context := vi.backend.context
	device := context.Device.LogicalDevice
	if vi.DescriptorSet != vk.NullDescriptorSet {
		vi.backend.descriptors.Free(context, vi.DescriptorSet)
		vi.DescriptorSet = vk.NullDescriptorSet
	}
	if vi.View != vk.NullImageView {
		vk.DestroyImageView(device, vi.View, context.Allocator)
		vi.View = vk.NullImageView
	}
	if vi.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, vi.Memory, context.Allocator)
		vi.Memory = vk.NullDeviceMemory
	}
	if vi.Handle != vk.NullImage {
		vk.DestroyImage(device, vi.Handle, context.Allocator)
		vi.Handle = vk.NullImage
	}
}
