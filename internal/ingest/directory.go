package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScanDirectory walks root and runs HandleFile for every eligible file that
// has no sidecar yet. Per-file failures are collected, not returned.
func (s *Service) ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]Outcome, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []Outcome
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Outcome{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || IsSidecar(path) || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		if hasSidecar(path) {
			return nil
		}
		stats.Matched++

		out, err := s.HandleFile(ctx, path)
		results = append(results, out)
		if err != nil {
			stats.Failed++
			return nil
		}
		stats.Succeeded++
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	s.logger.Info("ingest.scan.done", "root", root, "matched", stats.Matched, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return results, stats, nil
}

func hasSidecar(path string) bool {
	_, err := os.Stat(path + SidecarSuffix)
	return err == nil
}
