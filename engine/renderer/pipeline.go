package renderer

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
)

type Topology uint8

const (
	TopologyLineStrip Topology = iota
	TopologyTriangleList
)

type PolygonMode uint8

const (
	PolygonModeFill PolygonMode = iota
	PolygonModeLine
)

// VertexAttribute describes one float vector input of the vertex shader.
type VertexAttribute struct {
	Location   uint32
	Components uint32
	Offset     uint32
}

// PipelineDesc fully describes one of the fixed graphics pipelines.
type PipelineDesc struct {
	Kind             ShapeKind
	Name             string
	VertexShader     []uint32
	FragmentShader   []uint32
	Topology         Topology
	PolygonMode      PolygonMode
	VertexStride     uint32
	Attributes       []VertexAttribute
	PushConstantSize uint32
	// Sampled texture at set 0, binding 0.
	UsesTexture bool
}

var colorAttributes = []VertexAttribute{
	{Location: 0, Components: 2, Offset: 0},
	{Location: 1, Components: 4, Offset: 8},
}

var textureAttributes = []VertexAttribute{
	{Location: 0, Components: 2, Offset: 0},
	{Location: 1, Components: 2, Offset: 8},
}

// DefaultPipelineDescs returns the three pipeline layouts without shader code.
func DefaultPipelineDescs() []PipelineDesc {
	return []PipelineDesc{
		{
			Kind:             ShapeKindLine,
			Name:             "line",
			Topology:         TopologyLineStrip,
			PolygonMode:      PolygonModeLine,
			VertexStride:     colorVertexStride,
			Attributes:       colorAttributes,
			PushConstantSize: PushConstantSize,
		},
		{
			Kind:             ShapeKindColorPolygon,
			Name:             "color_poly2",
			Topology:         TopologyTriangleList,
			PolygonMode:      PolygonModeFill,
			VertexStride:     colorVertexStride,
			Attributes:       colorAttributes,
			PushConstantSize: PushConstantSize,
		},
		{
			Kind:             ShapeKindTexturePolygon,
			Name:             "tex_poly2",
			Topology:         TopologyTriangleList,
			PolygonMode:      PolygonModeFill,
			VertexStride:     textureVertexStride,
			Attributes:       textureAttributes,
			PushConstantSize: PushConstantSize,
			UsesTexture:      true,
		},
	}
}

// PipelineSet holds one pipeline per shape kind.
type PipelineSet struct {
	pipelines map[ShapeKind]Pipeline
}

// NewPipelineSet loads the shaders for every pipeline and builds it. On
// failure the pipelines already built are released.
func NewPipelineSet(backend Backend, shaders ShaderSource) (*PipelineSet, error) {
	ps := &PipelineSet{pipelines: make(map[ShapeKind]Pipeline, 3)}
	for _, desc := range DefaultPipelineDescs() {
		var err error
		if desc.VertexShader, err = shaders.LoadShader(desc.Name, ShaderStageVertex); err != nil {
			ps.Release()
			return nil, fmt.Errorf("failed to load vertex shader %q: %w", desc.Name, err)
		}
		if desc.FragmentShader, err = shaders.LoadShader(desc.Name, ShaderStageFragment); err != nil {
			ps.Release()
			return nil, fmt.Errorf("failed to load fragment shader %q: %w", desc.Name, err)
		}
		p, err := backend.CreatePipeline(desc)
		if err != nil {
			ps.Release()
			return nil, fmt.Errorf("failed to create pipeline %q: %w", desc.Name, err)
		}
		core.LogDebug("created pipeline `%s`", desc.Name)
		ps.pipelines[desc.Kind] = p
	}
	return ps, nil
}

func (ps *PipelineSet) Get(kind ShapeKind) Pipeline {
	return ps.pipelines[kind]
}

func (ps *PipelineSet) Release() {
	for kind, p := range ps.pipelines {
		p.Release()
		delete(ps.pipelines, kind)
	}
}
