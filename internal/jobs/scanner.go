package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/studyloop/mentor/internal/domain"
)

// FileIngester indexes a single document file.
type FileIngester interface {
	IngestFile(ctx context.Context, path string) (int, error)
}

// DirScanner watches the documents directory and ingests files that are new
// or have changed since the last scan. It implements Task so it can run
// under a Worker.
type DirScanner struct {
	dir      string
	ingester FileIngester
	seen     map[string]time.Time
}

// NewDirScanner creates a scanner for the given directory.
func NewDirScanner(dir string, ingester FileIngester) *DirScanner {
	return &DirScanner{
		dir:      dir,
		ingester: ingester,
		seen:     map[string]time.Time{},
	}
}

// Run scans the directory once, ingesting new and modified files.
func (s *DirScanner) Run(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			// The directory may appear later; not an error worth retry noise.
			return nil
		}
		return fmt.Errorf("failed to scan %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !domain.SourceTypeForPath(entry.Name()).IsValid() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if lastMod, ok := s.seen[entry.Name()]; ok && !info.ModTime().After(lastMod) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		count, err := s.ingester.IngestFile(ctx, path)
		if err != nil {
			log.Printf("scanner: failed to ingest %s: %v", entry.Name(), err)
			continue
		}

		s.seen[entry.Name()] = info.ModTime()
		log.Printf("scanner: indexed %s (%d fragments)", entry.Name(), count)
	}

	return nil
}
