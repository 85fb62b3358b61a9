package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

// DefaultRepository is used for coordinate-only libraries that carry
// neither downloads nor a repository URL.
const DefaultRepository = "https://libraries.minecraft.net/"

// Artifact is a downloadable library file.
type Artifact struct {
	Path string `json:"path"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Library is one of *CustomLibrary, *DefaultLibrary, *SeminativeLibrary or
// *NativeLibrary.
type Library interface {
	// LibraryName returns the group:artifact:version coordinate.
	LibraryName() string

	isLibrary()
}

// CustomLibrary is a coordinate hosted in a Maven-style repository.
type CustomLibrary struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DefaultLibrary is an unconditional library with a single artifact.
type DefaultLibrary struct {
	Name     string   `json:"name"`
	Artifact Artifact `json:"artifact"`
}

// SeminativeLibrary is a single artifact included only when its rules pass.
type SeminativeLibrary struct {
	Name     string   `json:"name"`
	Rules    []Rule   `json:"rules"`
	Artifact Artifact `json:"artifact"`
}

// NativeLibrary carries per-OS classifier artifacts. Natives maps an OS to
// a classifier name, which may contain "${arch}".
type NativeLibrary struct {
	Name        string              `json:"name"`
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Rules       []Rule              `json:"rules,omitempty"`
	Natives     map[types.OS]string `json:"natives"`
	Classifiers map[string]Artifact `json:"classifiers"`
}

func (l *CustomLibrary) LibraryName() string     { return l.Name }
func (l *DefaultLibrary) LibraryName() string    { return l.Name }
func (l *SeminativeLibrary) LibraryName() string { return l.Name }
func (l *NativeLibrary) LibraryName() string     { return l.Name }

func (*CustomLibrary) isLibrary()     {}
func (*DefaultLibrary) isLibrary()    {}
func (*SeminativeLibrary) isLibrary() {}
func (*NativeLibrary) isLibrary()     {}

// Classifier returns the classifier name for p, with ${arch} expanded.
// The second result is false when the library has no entry for p.OS.
func (l *NativeLibrary) Classifier(p types.Platform) (string, bool) {
	name, ok := l.Natives[p.OS]
	if !ok {
		return "", false
	}
	bits := "64"
	if p.Arch == types.ArchX86 {
		bits = "32"
	}
	return strings.ReplaceAll(name, "${arch}", bits), true
}

type rawLibrary struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Downloads *struct {
		Artifact    *Artifact           `json:"artifact"`
		Classifiers map[string]Artifact `json:"classifiers"`
	} `json:"downloads"`
	Rules   []Rule              `json:"rules"`
	Natives map[types.OS]string `json:"natives"`
}

// decodeLibrary picks the library variant from the fields present.
func decodeLibrary(data []byte) (Library, error) {
	var raw rawLibrary
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("library without name")
	}

	if raw.Downloads == nil {
		url := raw.URL
		if url == "" {
			url = DefaultRepository
		}
		return &CustomLibrary{Name: raw.Name, URL: url}, nil
	}

	if raw.Natives != nil {
		return &NativeLibrary{
			Name:        raw.Name,
			Artifact:    raw.Downloads.Artifact,
			Rules:       raw.Rules,
			Natives:     raw.Natives,
			Classifiers: raw.Downloads.Classifiers,
		}, nil
	}

	if raw.Downloads.Artifact == nil {
		return nil, fmt.Errorf("library %s: downloads without artifact", raw.Name)
	}

	if raw.Rules != nil {
		return &SeminativeLibrary{Name: raw.Name, Rules: raw.Rules, Artifact: *raw.Downloads.Artifact}, nil
	}
	return &DefaultLibrary{Name: raw.Name, Artifact: *raw.Downloads.Artifact}, nil
}

// Libraries is a library list that decodes each entry into its variant.
type Libraries []Library

// UnmarshalJSON implements json.Unmarshaler.
func (ls *Libraries) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Libraries, 0, len(raws))
	for i, r := range raws {
		lib, err := decodeLibrary(r)
		if err != nil {
			return fmt.Errorf("%w: library %d: %w", ErrMalformedManifest, i, err)
		}
		out = append(out, lib)
	}
	*ls = out
	return nil
}

// CoordinatePath maps a group:artifact:version[:classifier][@ext] coordinate
// to its repository-relative path, e.g. "net.fabricmc:intermediary:1.20.1"
// becomes "net/fabricmc/intermediary/1.20.1/intermediary-1.20.1.jar".
func CoordinatePath(name string) (string, error) {
	ext := "jar"
	if at := strings.LastIndexByte(name, '@'); at >= 0 {
		ext = name[at+1:]
		name = name[:at]
	}

	parts := strings.Split(name, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return "", fmt.Errorf("%w: library coordinate %q", ErrInvalidManifest, name)
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("%w: library coordinate %q", ErrInvalidManifest, name)
		}
	}

	group, artifact, version := parts[0], parts[1], parts[2]
	file := artifact + "-" + version
	if len(parts) == 4 {
		file += "-" + parts[3]
	}
	file += "." + ext

	return strings.Join([]string{
		strings.ReplaceAll(group, ".", "/"),
		artifact,
		version,
		file,
	}, "/"), nil
}
