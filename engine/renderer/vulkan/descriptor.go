package vulkan

import (
	vk "github.com/goki/vulkan"
)

// VulkanDescriptorSetConfig is the layout shared by every texture: a single
// combined image sampler read by the fragment stage.
type VulkanDescriptorSetConfig struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	// Shared by every texture.
	Sampler vk.Sampler
}

func NewDescriptorSetConfig(context *VulkanContext, maxSets uint32) (*VulkanDescriptorSetConfig, error) {
	config := &VulkanDescriptorSetConfig{}

	binding := vk.DescriptorSetLayoutBinding{
		Binding:         TEXTURE_SAMPLER_BINDING,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{binding},
	}
	var layout vk.DescriptorSetLayout
	if err := vulkanError(vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout), "vkCreateDescriptorSetLayout"); err != nil {
		return nil, err
	}
	config.Layout = layout

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       maxSets,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: maxSets,
		}},
	}
	var pool vk.DescriptorPool
	if err := vulkanError(vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool), "vkCreateDescriptorPool"); err != nil {
		config.Destroy(context)
		return nil, err
	}
	config.Pool = pool

	samplerInfo := vk.SamplerCreateInfo{
		SType:            vk.StructureTypeSamplerCreateInfo,
		MagFilter:        vk.FilterNearest,
		MinFilter:        vk.FilterNearest,
		MipmapMode:       vk.SamplerMipmapModeNearest,
		AddressModeU:     vk.SamplerAddressModeClampToEdge,
		AddressModeV:     vk.SamplerAddressModeClampToEdge,
		AddressModeW:     vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable: vk.False,
		MaxAnisotropy:    1.0,
		BorderColor:      vk.BorderColorIntOpaqueBlack,
		CompareOp:        vk.CompareOpAlways,
	}
	var sampler vk.Sampler
	if err := vulkanError(vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler), "vkCreateSampler"); err != nil {
		config.Destroy(context)
		return nil, err
	}
	config.Sampler = sampler

	return config, nil
}

// Allocate returns a set pointing at view, ready to be bound at set 0.
func (c *VulkanDescriptorSetConfig) Allocate(context *VulkanContext, view vk.ImageView) (vk.DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     c.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{c.Layout},
	}
	var set vk.DescriptorSet
	if err := vulkanError(vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocInfo, &set), "vkAllocateDescriptorSets"); err != nil {
		return vk.NullDescriptorSet, err
	}

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      TEXTURE_SAMPLER_BINDING,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     c.Sampler,
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return set, nil
}

func (c *VulkanDescriptorSetConfig) Free(context *VulkanContext, set vk.DescriptorSet) {
	if set == vk.NullDescriptorSet {
		return
	}
	vk.FreeDescriptorSets(context.Device.LogicalDevice, c.Pool, 1, &set)
}

func (c *VulkanDescriptorSetConfig) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if c.Sampler != vk.NullSampler {
		vk.DestroySampler(device, c.Sampler, context.Allocator)
		c.Sampler = vk.NullSampler
	}
	if c.Pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(device, c.Pool, context.Allocator)
		c.Pool = vk.NullDescriptorPool
	}
	if c.Layout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(device, c.Layout, context.Allocator)
		c.Layout = vk.NullDescriptorSetLayout
	}
}
