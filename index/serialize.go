package index

import (
	"archive/zip"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/sraesch/raycasting-occlusion/log"
)

const (
	// Bumped whenever the container layout changes.
	indexFormatVersion uint32 = 1

	headerFile = "header.bin"
	nodeFile   = "nodes.bin"
	triFile    = "tris.bin"
)

// Container metadata stored alongside the node and triangle lists.
type indexHeader struct {
	Version     uint32
	BudgetBytes int64
	NumObjects  int
}

// WriteIndex persists a built index to a compressed container file so that
// construction cost can be paid once for scenes queried repeatedly.
func WriteIndex(ix *Index, indexFile string) error {
	logger := log.New("indexWriter")
	logger.Infof("writing compressed index to %s", indexFile)
	start := time.Now()

	zipFile, err := os.Create(indexFile)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	zw := zip.NewWriter(zipFile)
	defer zw.Close()

	cw, err := zw.Create(headerFile)
	if err != nil {
		return err
	}
	header := indexHeader{
		Version:     indexFormatVersion,
		BudgetBytes: ix.BudgetBytes,
		NumObjects:  ix.NumObjects,
	}
	if err = gob.NewEncoder(cw).Encode(header); err != nil {
		return err
	}

	cw, err = zw.Create(nodeFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(ix.Nodes); err != nil {
		return err
	}

	cw, err = zw.Create(triFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(ix.Tris); err != nil {
		return err
	}

	logger.Infof("compressed index in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// ReadIndex loads a persisted index from a compressed container file.
func ReadIndex(indexFile string) (*Index, error) {
	logger := log.New("indexReader")
	logger.Infof("parsing compressed index from %s", indexFile)
	start := time.Now()

	zr, err := zip.OpenReader(indexFile)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var header indexHeader
	if err = decodeEntry(&zr.Reader, headerFile, &header); err != nil {
		return nil, err
	}
	if header.Version != indexFormatVersion {
		return nil, fmt.Errorf("index file %s has unsupported format version %d (want %d)",
			indexFile, header.Version, indexFormatVersion)
	}

	ix := &Index{
		NumObjects:  header.NumObjects,
		BudgetBytes: header.BudgetBytes,
	}
	if err = decodeEntry(&zr.Reader, nodeFile, &ix.Nodes); err != nil {
		return nil, err
	}
	if err = decodeEntry(&zr.Reader, triFile, &ix.Tris); err != nil {
		return nil, err
	}

	logger.Infof("parsed index in %d ms", time.Since(start).Nanoseconds()/1e6)
	return ix, nil
}

func decodeEntry(zr *zip.Reader, name string, out interface{}) error {
	f, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("missing container entry %s: %w", name, err)
	}
	defer f.Close()

	return gob.NewDecoder(f).Decode(out)
}
