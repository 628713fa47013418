//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Compiles the shaders and runs the bouncing quad example.
func (Run) Example() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run example...")
	return sh.RunV("go", "run", ".")
}

// Runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./engine/...", "./testbed/...")
}
