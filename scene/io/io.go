// Package io reads and writes the engine's serialized scene container.
// CAD import itself lives outside the engine; importers produce this
// container and hand it over.
package io

import (
	"fmt"
	"strings"

	"github.com/sraesch/raycasting-occlusion/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition.
	Read() (*scene.Scene, error)
}

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write scene definition.
	Write(sc *scene.Scene) error
}

// ReadScene reads and validates a scene from file.
func ReadScene(filename string) (*scene.Scene, error) {
	if !strings.HasSuffix(filename, ".occ") {
		return nil, fmt.Errorf("readScene: unsupported file format %q", filename)
	}
	return newZipSceneReader(filename).Read()
}

// WriteScene writes a scene to file.
func WriteScene(filename string, sc *scene.Scene) error {
	if !strings.HasSuffix(filename, ".occ") {
		return fmt.Errorf("writeScene: unsupported file format %q", filename)
	}
	return newZipSceneWriter(filename).Write(sc)
}
