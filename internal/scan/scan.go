// Package scan walks a vault of markdown documents, classifies every fenced
// query block, and reports what a re-serialization pass would do with each
// file. File reads run through the batch processor so a large vault never has
// more than a bounded number of reads in flight.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kmoran/notekit/internal/batch"
	"github.com/kmoran/notekit/internal/logging"
	"github.com/kmoran/notekit/internal/note"
)

// FileReport is the classification of a single document.
type FileReport struct {
	Path        string
	Excalidraw  bool
	TaskQueries int
	SkipBlocks  int
	OtherBlocks int
}

// Summary aggregates a whole scan.
type Summary struct {
	Files       int
	Excalidraw  int
	TaskQueries int
	SkipBlocks  int
	OtherBlocks int
	Reports     []FileReport
}

// Vault scans the markdown files under root (or root itself when it is a
// file) with at most batchSize concurrent reads. Reports come back in
// path order.
func Vault(ctx context.Context, root string, batchSize int) (*Summary, error) {
	log := logging.FromContext(ctx)

	paths, err := markdownFiles(root)
	if err != nil {
		return nil, err
	}
	log.Debug().Ctx(ctx).Int("files", len(paths)).Int("batch_size", batchSize).Msg("scanning vault")

	reports, err := batch.ProcessN(ctx, paths, classifyFile, batchSize)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Files: len(reports), Reports: reports}
	for _, r := range reports {
		if r.Excalidraw {
			summary.Excalidraw++
		}
		summary.TaskQueries += r.TaskQueries
		summary.SkipBlocks += r.SkipBlocks
		summary.OtherBlocks += r.OtherBlocks
	}
	return summary, nil
}

// markdownFiles lists the markdown documents to scan, sorted by path. Hidden
// directories such as .obsidian and .git are not descended into.
func markdownFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("accessing %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func classifyFile(ctx context.Context, path string) (FileReport, error) {
	if err := ctx.Err(); err != nil {
		return FileReport{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return FileReport{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc := string(raw)

	fm, err := note.Frontmatter(doc)
	if err != nil {
		return FileReport{}, fmt.Errorf("%s: %w", path, err)
	}

	report := FileReport{
		Path:       path,
		Excalidraw: note.IsExcalidrawFile(path, fm),
	}
	// Drawing files are owned by another plugin and never re-serialized, so
	// their fences are not query blocks.
	if report.Excalidraw {
		return report, nil
	}

	for _, block := range note.ParseQueryBlocks(doc) {
		switch {
		case note.SkipReserialization(block):
			report.SkipBlocks++
		case note.IsTaskQuery(block):
			report.TaskQueries++
		default:
			report.OtherBlocks++
		}
	}
	return report, nil
}
