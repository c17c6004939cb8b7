package io

import (
	"archive/zip"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/sraesch/raycasting-occlusion/log"
	"github.com/sraesch/raycasting-occlusion/scene"
)

const (
	// Bumped whenever the container layout changes.
	formatVersion uint32 = 1

	versionFile = "version.bin"
	meshFile    = "meshes.bin"
	objectFile  = "objects.bin"
)

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer.
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("sceneWriter"),
		sceneFile: sceneFile,
	}
}

// Write scene definition to zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Infof("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	zw := zip.NewWriter(zipFile)
	defer zw.Close()

	cw, err := zw.Create(versionFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(formatVersion); err != nil {
		return err
	}

	cw, err = zw.Create(meshFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(sc.Meshes); err != nil {
		return err
	}

	cw, err = zw.Create(objectFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(sc.Objects); err != nil {
		return err
	}

	w.logger.Infof("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

type zipSceneReader struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene reader.
func newZipSceneReader(sceneFile string) *zipSceneReader {
	return &zipSceneReader{
		logger:    log.New("sceneReader"),
		sceneFile: sceneFile,
	}
}

// Read scene definition from zip file. The scene is validated before it is
// returned; integrity violations surface here and not during queries.
func (r *zipSceneReader) Read() (*scene.Scene, error) {
	r.logger.Infof("parsing compressed scene from %s", r.sceneFile)
	start := time.Now()

	zr, err := zip.OpenReader(r.sceneFile)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var version uint32
	if err = decodeEntry(&zr.Reader, versionFile, &version); err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("scene file %s has unsupported format version %d (want %d)",
			r.sceneFile, version, formatVersion)
	}

	sc := &scene.Scene{}
	if err = decodeEntry(&zr.Reader, meshFile, &sc.Meshes); err != nil {
		return nil, err
	}
	if err = decodeEntry(&zr.Reader, objectFile, &sc.Objects); err != nil {
		return nil, err
	}

	if err = sc.Validate(); err != nil {
		return nil, err
	}

	r.logger.Infof("parsed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

func decodeEntry(zr *zip.Reader, name string, out interface{}) error {
	f, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("missing container entry %s: %w", name, err)
	}
	defer f.Close()

	return gob.NewDecoder(f).Decode(out)
}
