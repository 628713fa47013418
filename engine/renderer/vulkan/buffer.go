package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// VulkanBuffer is a host visible, coherent buffer filled once at creation.
// It implements renderer.Buffer.
type VulkanBuffer struct {
	backend *VulkanBackend
	usage   renderer.BufferUsage
	size    uint64

	Handle vk.Buffer
	Memory vk.DeviceMemory
}

var bufferUsageFlags = map[renderer.BufferUsage]vk.BufferUsageFlagBits{
	renderer.BufferUsageVertex:  vk.BufferUsageVertexBufferBit,
	renderer.BufferUsageIndex:   vk.BufferUsageIndexBufferBit,
	renderer.BufferUsageStaging: vk.BufferUsageTransferSrcBit,
}

func NewBuffer(b *VulkanBackend, usage renderer.BufferUsage, data []byte) (*VulkanBuffer, error) {
	context := b.context
	device := context.Device.LogicalDevice
	size := uint64(len(data))
	if size == 0 {
		return nil, fmt.Errorf("empty %s buffer: %w", usage, core.ErrAllocationFailed)
	}

	buffer := &VulkanBuffer{backend: b, usage: usage, size: size}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(bufferUsageFlags[usage]),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if res := vk.CreateBuffer(device, &bufferInfo, context.Allocator, &handle); res != vk.Success {
		return nil, allocationError("vkCreateBuffer", res)
	}
	buffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, handle, &requirements)
	requirements.Deref()

	memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if memoryIndex < 0 {
		buffer.destroy()
		return nil, fmt.Errorf("no host visible memory for %s buffer: %w", usage, core.ErrAllocationFailed)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(device, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		buffer.destroy()
		return nil, allocationError("vkAllocateMemory", res)
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(device, handle, memory, 0); res != vk.Success {
		buffer.destroy()
		return nil, allocationError("vkBindBufferMemory", res)
	}

	var mapped unsafe.Pointer
	if res := vk.MapMemory(device, memory, 0, vk.DeviceSize(size), 0, &mapped); res != vk.Success {
		buffer.destroy()
		return nil, allocationError("vkMapMemory", res)
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(device, memory)

	return buffer, nil
}

func (vb *VulkanBuffer) Usage() renderer.BufferUsage {
	return vb.usage
}

func (vb *VulkanBuffer) Size() uint64 {
	return vb.size
}

// Release frees the buffer. The renderer only calls it once no pending
// submission references the buffer.
func (vb *VulkanBuffer) Release() {
	if vb.backend == nil {
		return
	}
	vb.destroy()
	vb.backend = nil
}

func (vb *VulkanBuffer) destroy() {
	context := vb.backend.context
	if vb.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = vk.NullBuffer
	}
	if vb.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = vk.NullDeviceMemory
	}
}

func allocationError(call string, res vk.Result) error {
	core.LogError("%s failed with %s", call, VulkanResultString(res, true))
	return fmt.Errorf("%s: %s: %w", call, VulkanResultString(res, false), core.ErrAllocationFailed)
}
