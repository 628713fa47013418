package renderer

// Command is one unit of recorded GPU work.
type Command interface {
	isCommand()
}

// ClearCommand clears the target image to Color.
type ClearCommand struct {
	Target SwapchainImage
	Color  Color
}

// CopyBufferToImageCommand copies tightly packed RGBA8 pixels from Src into Dst.
type CopyBufferToImageCommand struct {
	Src    Buffer
	Dst    Texture
	Width  uint32
	Height uint32
}

// PassCommand is a single render pass issuing one draw into Target.
type PassCommand struct {
	Name          string
	Kind          ShapeKind
	Pipeline      Pipeline
	VertexBuffer  Buffer
	IndexBuffer   Buffer
	Texture       Texture
	PushConstants PushConstants
	VertexCount   uint32
	IndexCount    uint32
	Target        SwapchainImage
}

func (*ClearCommand) isCommand()             {}
func (*CopyBufferToImageCommand) isCommand() {}
func (*PassCommand) isCommand()              {}

// Indexed reports whether the pass uses DrawIndexed.
func (p *PassCommand) Indexed() bool {
	return p.IndexBuffer != nil
}

// Graph accumulates commands for one submission together with the resource
// references they need. Whoever submits the graph must call Release once the
// device is done with it.
type Graph struct {
	commands []Command
	retained []Resource
}

func NewGraph() *Graph {
	return &Graph{}
}

// Add appends cmd and keeps the given references alive until Release.
func (g *Graph) Add(cmd Command, keep ...Resource) {
	g.commands = append(g.commands, cmd)
	g.retained = append(g.retained, keep...)
}

// Retain keeps references alive until Release without recording a command.
func (g *Graph) Retain(keep ...Resource) {
	g.retained = append(g.retained, keep...)
}

func (g *Graph) Commands() []Command {
	return g.commands
}

func (g *Graph) Len() int {
	return len(g.commands)
}

func (g *Graph) Passes() []*PassCommand {
	var passes []*PassCommand
	for _, c := range g.commands {
		if p, ok := c.(*PassCommand); ok {
			passes = append(passes, p)
		}
	}
	return passes
}

// Release drops every reference held by the graph. Calling it again is a no-op.
func (g *Graph) Release() {
	for _, r := range g.retained {
		r.Release()
	}
	g.retained = nil
}
