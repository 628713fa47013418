//go:build mage

package main

import (
	"fmt"
	"path/filepath"
)

const shaderDir = "assets/shaders"

// shaderSources lists the GLSL stages in shaderDir.
func shaderSources() ([]string, error) {
	var sources []string
	for _, ext := range []string{"*.vert", "*.frag"} {
		matches, err := filepath.Glob(filepath.Join(shaderDir, ext))
		if err != nil {
			return nil, err
		}
		sources = append(sources, matches...)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no GLSL sources in %s", shaderDir)
	}
	return sources, nil
}
