package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// PruneDir deletes everything in dir except the keep most recently
// modified entries. Two overlapping requests may race over the same
// candidates, so a file already gone is a no-op, not a failure.
func PruneDir(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("list %s: %w", dir, err)
	}

	type candidate struct {
		name  string
		mtime time.Time
	}
	candidates := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		candidates = append(candidates, candidate{name: entry.Name(), mtime: info.ModTime()})
	}

	excess := len(candidates) - keep
	if excess <= 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mtime.Before(candidates[j].mtime) })

	for _, c := range candidates[:excess] {
		if err := os.Remove(filepath.Join(dir, c.name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("prune %s: failed to remove %s: %v", dir, c.name, err)
			return fmt.Errorf("prune %s: %w", dir, err)
		}
	}
	return nil
}
