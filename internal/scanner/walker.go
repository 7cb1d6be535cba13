package scanner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Walker traverses the filesystem and discovers files.
//
// The walker is deliberately undiscriminating: it streams every non-hidden
// regular file and leaves deciding what is a chapter candidate to the
// scanner, so filtering stays in one place.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new walker.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{
		logger: logger,
	}
}

// WalkResult represents a file discovered during walking.
type WalkResult struct {
	// Path is the file's full path.
	Path string
	// RelPath is the path relative to the walk root.
	RelPath string
	// Size in bytes.
	Size int64
}

// Walk traverses a directory tree and streams discovered files.
// Hidden files and directories are skipped. The channel closes when the
// walk completes or the context is canceled.
func (w *Walker) Walk(ctx context.Context, rootPath string) <-chan WalkResult {
	results := make(chan WalkResult, 100) // Buffered channel for better performance

	go func() {
		defer close(results)

		err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
			// Check context cancellation.
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			// Handle walk errors.
			if err != nil {
				w.logger.Error("walk error", "path", path, "error", err)
				// Continue walking despite errors.
				return nil
			}

			// Skip hidden files/directories.
			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Skip directories (we only want files).
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				w.logger.Error("failed to get file info", "path", path, "error", err)
				return nil
			}

			relPath, err := filepath.Rel(rootPath, path)
			if err != nil {
				w.logger.Error("failed to compute relative path", "path", path, "error", err)
				relPath = path
			}

			result := WalkResult{
				Path:    path,
				RelPath: relPath,
				Size:    info.Size(),
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("walk failed", "root", rootPath, "error", err)
		}
	}()

	return results
}

// WalkTopLevel reads only the root directory itself, never descending into
// subdirectories. Hidden files are skipped. The channel closes when the
// listing completes or the context is canceled.
func (w *Walker) WalkTopLevel(ctx context.Context, rootPath string) <-chan WalkResult {
	results := make(chan WalkResult, 100)

	go func() {
		defer close(results)

		entries, err := os.ReadDir(rootPath)
		if err != nil {
			w.logger.Error("failed to read directory", "path", rootPath, "error", err)
			return
		}

		for _, entry := range entries {
			// Check context cancellation.
			select {
			case <-ctx.Done():
				return
			default:
			}

			if entry.IsDir() {
				continue
			}

			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}

			path := filepath.Join(rootPath, entry.Name())

			info, err := entry.Info()
			if err != nil {
				w.logger.Error("failed to get file info", "path", path, "error", err)
				continue
			}

			result := WalkResult{
				Path:    path,
				RelPath: entry.Name(),
				Size:    info.Size(),
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}
