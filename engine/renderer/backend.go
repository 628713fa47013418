package renderer

// Resource is anything owning device memory or handles.
type Resource interface {
	Release()
}

type BufferUsage uint8

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageStaging
)

func (u BufferUsage) String() string {
	switch u {
	case BufferUsageVertex:
		return "vertex"
	case BufferUsageIndex:
		return "index"
	case BufferUsageStaging:
		return "staging"
	}
	return "unknown"
}

type Buffer interface {
	Resource
	Usage() BufferUsage
	Size() uint64
}

// Texture is an RGBA8 sRGB 2D image that can be sampled by the textured pipeline.
type Texture interface {
	Resource
	Width() uint32
	Height() uint32
}

type Pipeline interface {
	Resource
	Kind() ShapeKind
}

// SwapchainImage identifies an acquired presentable image.
type SwapchainImage struct {
	Index  uint32
	Width  uint32
	Height uint32
}

type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	if s == ShaderStageVertex {
		return "vert"
	}
	return "frag"
}

// ShaderSource supplies compiled SPIR-V for a named shader stage.
type ShaderSource interface {
	LoadShader(name string, stage ShaderStage) ([]uint32, error)
}

// Window is the part of the windowing layer the renderer talks to.
type Window interface {
	FramebufferSize() (width, height uint32)
	PrePresentNotify()
	RequestRedraw()
}

// Backend executes command graphs on a device. Submit and SubmitUpload take
// ownership of the graph and call its Release once the work has completed,
// also when they fail.
type Backend interface {
	CreateBuffer(usage BufferUsage, data []byte) (Buffer, error)
	CreateTexture(width, height uint32) (Texture, error)
	CreatePipeline(desc PipelineDesc) (Pipeline, error)

	SetSwapchainSize(width, height uint32) error
	SwapchainSize() (width, height uint32)
	// AcquireNextImage returns core.ErrNoImageAvailable when the presentation
	// engine has nothing ready.
	AcquireNextImage() (SwapchainImage, error)

	// Submit executes graph and presents target.
	Submit(graph *Graph, target SwapchainImage) error
	// SubmitUpload executes graph and waits for the queue to go idle.
	SubmitUpload(graph *Graph) error

	WaitIdle() error
	Shutdown() error
}
