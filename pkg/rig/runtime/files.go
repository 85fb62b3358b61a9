package runtime

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jamesainslie/rig/pkg/rig/manifest"
)

// EntryType is the kind of a runtime file manifest entry.
type EntryType string

// Entry types.
const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
	EntryLink      EntryType = "link"
)

// EntryDownloads lists the encodings a file is published in. Only Raw is
// fetched.
type EntryDownloads struct {
	Raw  manifest.Download  `json:"raw"`
	LZMA *manifest.Download `json:"lzma,omitempty"`
}

// Entry is one path of a runtime component.
type Entry struct {
	Type       EntryType       `json:"type"`
	Executable bool            `json:"executable,omitempty"`
	Downloads  *EntryDownloads `json:"downloads,omitempty"`
	Target     string          `json:"target,omitempty"`
}

// FileManifest lists every path of a runtime component.
type FileManifest struct {
	Files map[string]Entry `json:"files"`
}

// ParseFileManifest decodes a runtime component file manifest.
func ParseFileManifest(data []byte) (*FileManifest, error) {
	var fm FileManifest
	if err := json.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("%w: runtime manifest: %w", manifest.ErrMalformedManifest, err)
	}
	for path, e := range fm.Files {
		if e.Type == EntryFile && e.Downloads == nil {
			return nil, fmt.Errorf("%w: runtime file %s has no downloads", manifest.ErrMalformedManifest, path)
		}
	}
	return &fm, nil
}

// Paths returns the paths of entries of type t in sorted order.
func (fm *FileManifest) Paths(t EntryType) []string {
	var paths []string
	for p, e := range fm.Files {
		if e.Type == t {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)
	return paths
}
