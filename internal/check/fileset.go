package check

import (
	"path"
	"sort"
	"strings"
)

// File is one project file: a slash-separated path relative to the scan root and its text.
type File struct {
	Path    string
	Content string
}

// Lines returns the file content split on newlines
func (f File) Lines() []string {
	return strings.Split(f.Content, "\n")
}

// FileSet is an immutable, path-sorted collection of files.
// It is safe for concurrent reads.
type FileSet struct {
	files []File
	index map[string]int
}

// NewFileSet builds a FileSet. Paths are cleaned; on duplicates the last one wins.
func NewFileSet(files []File) FileSet {
	byPath := make(map[string]string, len(files))
	for _, f := range files {
		p := strings.TrimPrefix(path.Clean(strings.ReplaceAll(f.Path, "\\", "/")), "./")
		byPath[p] = f.Content
	}

	sorted := make([]File, 0, len(byPath))
	for p, c := range byPath {
		sorted = append(sorted, File{Path: p, Content: c})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	index := make(map[string]int, len(sorted))
	for i, f := range sorted {
		index[f.Path] = i
	}
	return FileSet{files: sorted, index: index}
}

// Len returns the number of files
func (fs FileSet) Len() int {
	return len(fs.files)
}

// Files returns a copy of all files in path order
func (fs FileSet) Files() []File {
	out := make([]File, len(fs.files))
	copy(out, fs.files)
	return out
}

// Get returns the file at p
func (fs FileSet) Get(p string) (File, bool) {
	i, ok := fs.index[p]
	if !ok {
		return File{}, false
	}
	return fs.files[i], true
}

// Has reports whether p is in the set
func (fs FileSet) Has(p string) bool {
	_, ok := fs.index[p]
	return ok
}

// Match returns files whose path or base name matches any glob pattern,
// compared case-insensitively.
func (fs FileSet) Match(patterns ...string) []File {
	var out []File
	for _, f := range fs.files {
		lower := strings.ToLower(f.Path)
		base := path.Base(lower)
		for _, p := range patterns {
			p = strings.ToLower(p)
			if ok, _ := path.Match(p, lower); ok {
				out = append(out, f)
				break
			}
			if ok, _ := path.Match(p, base); ok {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// WithExt returns files with any of the given extensions (".go", ".tsx", ...)
func (fs FileSet) WithExt(exts ...string) []File {
	var out []File
	for _, f := range fs.files {
		ext := strings.ToLower(path.Ext(f.Path))
		for _, e := range exts {
			if ext == strings.ToLower(e) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Contents returns a path->content map, the shape the escalation stage reads
func (fs FileSet) Contents() map[string]string {
	out := make(map[string]string, len(fs.files))
	for _, f := range fs.files {
		out[f.Path] = f.Content
	}
	return out
}
