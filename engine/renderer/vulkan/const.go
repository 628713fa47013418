package vulkan

import vk "github.com/goki/vulkan"

// Frames that can be recorded while the GPU still works on earlier ones.
const MAX_FRAMES_IN_FLIGHT uint32 = 2

const DEFAULT_IMAGE_COUNT uint32 = 2

// Max number of textures alive at the same time, one descriptor set each.
const DEFAULT_MAX_TEXTURES uint32 = 1024

// Swapchain images and textures are both RGBA8 sRGB.
const TEXTURE_FORMAT = vk.FormatR8g8b8a8Srgb

// Binding of the combined image sampler used by the textured pipeline.
const TEXTURE_SAMPLER_BINDING uint32 = 0

// Textures are copy targets, sampled by the textured pipeline and usable as
// render targets.
const TEXTURE_USAGE = vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit | vk.ImageUsageColorAttachmentBit)
