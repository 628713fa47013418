package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// ShaderLoader resolves shader stages inside Dir. A stage named
// `<name>.<vert|frag>` is read from its compiled `.spv` file when present,
// otherwise compiled from a `.wgsl` source whose entry point is `main`.
type ShaderLoader struct {
	Dir string
}

func (sl *ShaderLoader) LoadShader(name string, stage renderer.ShaderStage) ([]uint32, error) {
	base := filepath.Join(sl.Dir, fmt.Sprintf("%s.%s", name, stage))

	code, err := LoadBytecode(base + ".spv")
	if err == nil {
		core.LogDebug("loaded shader `%s.spv`", base)
		return code, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	source, err := os.ReadFile(base + ".wgsl")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no compiled or WGSL source for shader %s: %w", base, core.ErrShaderCompile)
		}
		return nil, err
	}
	code, err = CompileWGSL(base+".wgsl", string(source))
	if err != nil {
		return nil, err
	}
	core.LogDebug("compiled shader `%s.wgsl`", base)
	return code, nil
}

// CompileWGSL translates WGSL source to SPIR-V words.
func CompileWGSL(name, source string) ([]uint32, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		core.LogError("failed to compile %s: %s", name, err)
		return nil, fmt.Errorf("%s: %v: %w", name, err, core.ErrShaderCompile)
	}
	return parseBytecode(name, spirv)
}
