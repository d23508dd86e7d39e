package metasync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/G1enB1and/MediaManagerX/codec"
	"github.com/G1enB1and/MediaManagerX/data"
	"github.com/G1enB1and/MediaManagerX/log"
)

// Embedder writes metadata bundles into files with a destructive rewrite
// of the managed block kinds and an atomic on-disk replace. It never
// reads or writes the catalog.
type Embedder struct {
	registry *codec.Registry
	logger   *log.Logger
}

func NewEmbedder(registry *codec.Registry, logger *log.Logger) *Embedder {
	return &Embedder{
		registry: registry,
		logger:   logger,
	}
}

// Embed rewrites the file at path so its managed metadata blocks carry
// exactly the bundle. The rewritten bytes land in a temporary file in
// the same directory and are swapped in with a rename, so a crash
// mid-write cannot leave a truncated file. On any failure the original
// file is byte-identical to before the call.
func (e *Embedder) Embed(path string, bundle data.MetadataBundle) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", data.ErrWriteFailure, path, err)
	}

	c, err := e.registry.Detect(file)
	if err != nil {
		return err
	}

	encoded, err := c.Encode(file, bundle)
	if err != nil {
		return err
	}

	if err := replaceFile(path, encoded); err != nil {
		return err
	}

	e.logger.Info("embedded %d tag(s), comment %d byte(s) into %s via %s",
		len(bundle.Tags), len(bundle.Comment), path, c.Name())

	return nil
}

// replaceFile writes content to a temporary file next to the target and
// renames it into place. The rename runs to completion once started.
func replaceFile(path string, content []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", data.ErrWriteFailure, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(content); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", data.ErrWriteFailure, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", data.ErrWriteFailure, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", data.ErrWriteFailure, err)
	}

	if info, err := os.Stat(path); err == nil {
		// Best effort: keep the original permissions on the new file.
		os.Chmod(tmpName, info.Mode().Perm())
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", data.ErrWriteFailure, err)
	}

	return nil
}
