// Package manifest models game version descriptors: root and inheriting
// manifests, libraries, launch arguments and the platform rule algebra that
// gates them. It also decodes asset indexes and the published version list.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedManifest indicates a document that does not decode or
	// lacks required fields.
	ErrMalformedManifest = errors.New("malformed manifest")

	// ErrInvalidManifest indicates a well-formed document whose content
	// cannot be planned (bad coordinates, missing classifiers, and so on).
	ErrInvalidManifest = errors.New("invalid manifest")
)

// VersionType is the release channel of a version. Unknown values are kept.
type VersionType string

// Known version types.
const (
	TypeRelease  VersionType = "release"
	TypeSnapshot VersionType = "snapshot"
	TypeOldBeta  VersionType = "old_beta"
	TypeOldAlpha VersionType = "old_alpha"
)

// Default runtime used when a manifest does not declare javaVersion.
const (
	DefaultJavaComponent = "jre-legacy"
	DefaultJavaMajor     = 8
)

// Download is a remote file with its digest and size.
type Download struct {
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Downloads lists the version-level files. Only Client is required.
type Downloads struct {
	Client         Download  `json:"client"`
	ClientMappings *Download `json:"client_mappings,omitempty"`
	Server         *Download `json:"server,omitempty"`
	ServerMappings *Download `json:"server_mappings,omitempty"`
}

// AssetIndexRef points at the asset index a version uses.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

// JavaVersion names the runtime component a version needs.
type JavaVersion struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

// LoggingFile is the client logging configuration file.
type LoggingFile struct {
	ID   string `json:"id"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Logging describes how the client configures its logger.
type Logging struct {
	Client *struct {
		Argument string      `json:"argument"`
		File     LoggingFile `json:"file"`
		Type     string      `json:"type"`
	} `json:"client,omitempty"`
}

// Manifest is either *Root or *Inherited.
type Manifest interface {
	ManifestID() string
	isManifest()
}

// Root is a complete version manifest.
type Root struct {
	ID          string
	MainClass   string
	AssetIndex  AssetIndexRef
	Assets      string
	Downloads   Downloads
	JavaVersion JavaVersion
	Libraries   Libraries
	Arguments   Arguments
	Type        VersionType
	Time        string
	ReleaseTime string
	Logging     *Logging
}

// Inherited is a partial manifest that extends a parent by id.
type Inherited struct {
	ID           string
	InheritsFrom string
	MainClass    string
	Libraries    Libraries
	Arguments    Arguments
	Type         VersionType
	Time         string
	ReleaseTime  string
}

func (m *Root) ManifestID() string      { return m.ID }
func (m *Inherited) ManifestID() string { return m.ID }

func (*Root) isManifest()      {}
func (*Inherited) isManifest() {}

// rawManifest is the union of every field either variant may carry.
type rawManifest struct {
	ID                 string         `json:"id"`
	InheritsFrom       string         `json:"inheritsFrom"`
	MainClass          string         `json:"mainClass"`
	AssetIndex         *AssetIndexRef `json:"assetIndex"`
	Assets             string         `json:"assets"`
	Downloads          *Downloads     `json:"downloads"`
	JavaVersion        *JavaVersion   `json:"javaVersion"`
	Libraries          Libraries      `json:"libraries"`
	Arguments          *Arguments     `json:"arguments"`
	MinecraftArguments string         `json:"minecraftArguments"`
	Type               VersionType    `json:"type"`
	Time               string         `json:"time"`
	ReleaseTime        string         `json:"releaseTime"`
	Logging            *Logging       `json:"logging"`
}

func (r *rawManifest) arguments() Arguments {
	if r.Arguments != nil {
		return *r.Arguments
	}
	if r.MinecraftArguments != "" {
		return legacyArguments(r.MinecraftArguments)
	}
	return Arguments{}
}

// Parse decodes a version manifest. A document with inheritsFrom yields an
// *Inherited, anything else must be a complete *Root.
func Parse(data []byte) (Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		if errors.Is(err, ErrMalformedManifest) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}

	if raw.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedManifest)
	}

	if raw.InheritsFrom != "" {
		return &Inherited{
			ID:           raw.ID,
			InheritsFrom: raw.InheritsFrom,
			MainClass:    raw.MainClass,
			Libraries:    raw.Libraries,
			Arguments:    raw.arguments(),
			Type:         raw.Type,
			Time:         raw.Time,
			ReleaseTime:  raw.ReleaseTime,
		}, nil
	}

	switch {
	case raw.MainClass == "":
		return nil, fmt.Errorf("%w: %s: missing mainClass", ErrMalformedManifest, raw.ID)
	case raw.AssetIndex == nil || raw.AssetIndex.ID == "" || raw.AssetIndex.URL == "":
		return nil, fmt.Errorf("%w: %s: missing assetIndex", ErrMalformedManifest, raw.ID)
	case raw.Downloads == nil || raw.Downloads.Client.URL == "":
		return nil, fmt.Errorf("%w: %s: missing client download", ErrMalformedManifest, raw.ID)
	}

	java := JavaVersion{Component: DefaultJavaComponent, MajorVersion: DefaultJavaMajor}
	if raw.JavaVersion != nil && raw.JavaVersion.Component != "" {
		java = *raw.JavaVersion
	}

	assets := raw.Assets
	if assets == "" {
		assets = raw.AssetIndex.ID
	}

	return &Root{
		ID:          raw.ID,
		MainClass:   raw.MainClass,
		AssetIndex:  *raw.AssetIndex,
		Assets:      assets,
		Downloads:   *raw.Downloads,
		JavaVersion: java,
		Libraries:   raw.Libraries,
		Arguments:   raw.arguments(),
		Type:        raw.Type,
		Time:        raw.Time,
		ReleaseTime: raw.ReleaseTime,
		Logging:     raw.Logging,
	}, nil
}

// Merge applies child on top of parent and returns a new Root. The child's
// id, main class and timestamps win; its libraries and arguments are
// appended after the parent's. Neither input is modified.
func Merge(child *Inherited, parent *Root) *Root {
	merged := *parent

	merged.ID = child.ID
	if child.MainClass != "" {
		merged.MainClass = child.MainClass
	}
	if child.Time != "" {
		merged.Time = child.Time
	}
	if child.ReleaseTime != "" {
		merged.ReleaseTime = child.ReleaseTime
	}
	if child.Type != "" {
		merged.Type = child.Type
	}

	merged.Libraries = concat(parent.Libraries, child.Libraries)
	merged.Arguments = Arguments{
		Game: concat(parent.Arguments.Game, child.Arguments.Game),
		JVM:  concat(parent.Arguments.JVM, child.Arguments.JVM),
	}

	return &merged
}

func concat[S ~[]E, E any](a, b S) S {
	out := make(S, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
