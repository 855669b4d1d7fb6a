package runner

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Scratch is a per-attempt temp directory. Close removes it and everything in it.
type Scratch struct {
	Dir    string
	logger *slog.Logger
}

// NewScratch creates a temp directory using the os.MkdirTemp pattern.
func NewScratch(pattern string, logger *slog.Logger) (*Scratch, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return nil, err
	}
	return &Scratch{Dir: dir, logger: logger}, nil
}

// Path joins name onto the scratch directory.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// WriteFile writes data under the scratch directory and returns its path.
func (s *Scratch) WriteFile(name string, data []byte) (string, error) {
	p := s.Path(name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", err
	}
	return p, nil
}

func (s *Scratch) Close() {
	if err := os.RemoveAll(s.Dir); err != nil {
		s.logger.Warn("failed to remove temp dir", "dir", s.Dir, "error", err)
	}
}
