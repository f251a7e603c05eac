// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recordstore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Load reads the records file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening records %s: %w", path, err)
	}
	defer fh.Close()
	return Read(fh)
}

// Write renders refs as single-line records, one per line.
func Write(w io.Writer, refs []*types.Reference) error {
	bw := bufio.NewWriter(w)
	for _, ref := range refs {
		if _, err := bw.WriteString(Format(ref) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes refs to path through a temp file and rename, so readers
// never see a partially written file.
func Save(path string, refs []*types.Reference) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".records-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := Write(tmp, refs)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing records: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
