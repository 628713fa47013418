//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Build mg.Namespace

// Compiles every GLSL stage in assets/shaders into a .spv next to it.
func (Build) Shaders() error {
	sources, err := shaderSources()
	if err != nil {
		return err
	}
	for _, src := range sources {
		// line.vert -> line.vert.spv, the name the shader loader looks for.
		if err := sh.RunV("glslc", src, "-o", src+".spv"); err != nil {
			return fmt.Errorf("failed to compile %s: %w", src, err)
		}
	}
	return nil
}

// Builds the example binary into bin/.
func (Build) Example() error {
	mg.Deps(Build.Shaders)
	out := filepath.Join("bin", "anima2d")
	if err := sh.RunV("go", "build", "-o", out, "."); err != nil {
		return err
	}
	fmt.Printf("Built %s\n", out)
	return nil
}
