// Package collect loads a project directory into a check.FileSet.
package collect

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/errors"
	"github.com/felixgeelhaar/complyscan/internal/log"
)

// DefaultMaxFileSize skips generated bundles and data dumps
const DefaultMaxFileSize int64 = 1 << 20

// DefaultExcludeDirs are never descended into
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn", "node_modules", "vendor", ".venv", "venv", "__pycache__",
	"dist", "build", "target", ".next", ".terraform", ".idea", ".vscode", ".complyscan",
}

// Options controls collection
type Options struct {
	MaxFileSize int64
	ExcludeDirs []string
	Logger      *log.Logger
}

// Stats reports what collection skipped
type Stats struct {
	Files       int `json:"files"`
	SkippedDirs int `json:"skippedDirs"`
	TooLarge    int `json:"tooLarge"`
	Binary      int `json:"binary"`
	Unreadable  int `json:"unreadable"`
}

// Collect walks root and returns its text files. Unreadable files are
// skipped. A missing root or a tree with no text files is an error.
func Collect(root string, opts Options) (check.FileSet, Stats, error) {
	var stats Stats
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.ExcludeDirs == nil {
		opts.ExcludeDirs = DefaultExcludeDirs
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return check.FileSet{}, stats, errors.New(errors.ErrCodeScanRootNotFound, "scan root is not a directory: "+root).
			WithSuggestion("Pass the project directory as the first argument")
	}

	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}

	var files []check.File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			stats.Unreadable++
			opts.Logger.Debug("path unreadable", "path", path, "error", err.Error())
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && excluded[d.Name()] {
				stats.SkippedDirs++
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			stats.Unreadable++
			return nil
		}
		if fi.Size() > opts.MaxFileSize {
			stats.TooLarge++
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			stats.Unreadable++
			opts.Logger.Debug("file unreadable", "path", path, "error", err.Error())
			return nil
		}
		if isBinary(data) {
			stats.Binary++
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, check.File{Path: filepath.ToSlash(rel), Content: string(data)})
		return nil
	})
	if err != nil {
		return check.FileSet{}, stats, errors.Wrap(errors.ErrCodeFileReadFailed, "walk "+root, err)
	}

	if len(files) == 0 {
		return check.FileSet{}, stats, errors.New(errors.ErrCodeScanEmpty, "no text files under "+root).
			WithSuggestion("Check that the directory is a project checkout and not only vendored or binary content")
	}

	stats.Files = len(files)
	opts.Logger.Debug("files collected",
		"root", root,
		"files", stats.Files,
		"skipped_dirs", stats.SkippedDirs,
		"too_large", stats.TooLarge,
		"binary", stats.Binary,
	)
	return check.NewFileSet(files), stats, nil
}

const sniffLen = 8 << 10

// isBinary treats NUL bytes or invalid UTF-8 in the first 8 KiB as binary
func isBinary(data []byte) bool {
	head := data
	truncated := len(head) > sniffLen
	if truncated {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	if truncated {
		// drop the last rune, which the cut may have split
		for i := len(head) - 1; i >= 0 && i >= len(head)-utf8.UTFMax; i-- {
			if utf8.RuneStart(head[i]) {
				head = head[:i]
				break
			}
		}
	}
	return !utf8.Valid(head)
}
