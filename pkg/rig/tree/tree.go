// Package tree defines the canonical on-disk layout of an install root.
//
// A Tree is derived once per install run from the root directory, the
// version id and the runtime component id, and is never mutated afterwards.
// The planner uses it to compute destination paths; launch logic uses the
// same layout to find installed files.
package tree

import (
	"path/filepath"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

// Directory and file names of the canonical layout.
const (
	LibrariesDir     = "libraries"
	AssetsDir        = "assets"
	AssetIndexesDir  = "indexes"
	AssetObjectsDir  = "objects"
	VersionsDir      = "versions"
	NativesDir       = "natives"
	RuntimeDir       = "jre"
	VersionListFile  = "version_manifest_v2.json"
	RuntimeIndexFile = "all.json"
)

// Tree is the set of canonical directories for one version install.
type Tree struct {
	root      string
	versionID string
	runtimeID string

	libraries      string
	assetObjects   string
	assetIndexes   string
	version        string
	versionNatives string
	runtime        string
}

// New derives the canonical tree for versionID and runtimeComponent under root.
// The root is made absolute; an empty runtime component yields a runtime
// directory equal to the runtime base directory.
func New(root, versionID, runtimeComponent string) (Tree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Tree{}, err
	}

	versionDir := filepath.Join(abs, VersionsDir, versionID)
	assetsDir := filepath.Join(abs, AssetsDir)

	return Tree{
		root:           abs,
		versionID:      versionID,
		runtimeID:      runtimeComponent,
		libraries:      filepath.Join(abs, LibrariesDir),
		assetObjects:   filepath.Join(assetsDir, AssetObjectsDir),
		assetIndexes:   filepath.Join(assetsDir, AssetIndexesDir),
		version:        versionDir,
		versionNatives: filepath.Join(versionDir, NativesDir),
		runtime:        filepath.Join(abs, RuntimeDir, runtimeComponent),
	}, nil
}

// Root returns the absolute install root.
func (t Tree) Root() string { return t.root }

// VersionID returns the version the tree was derived for.
func (t Tree) VersionID() string { return t.versionID }

// RuntimeComponent returns the runtime component the tree was derived for.
func (t Tree) RuntimeComponent() string { return t.runtimeID }

// Dir returns the absolute directory for a resource kind.
func (t Tree) Dir(kind types.Kind) string {
	switch kind {
	case types.KindLibrary:
		return t.libraries
	case types.KindAssetObject:
		return t.assetObjects
	case types.KindAssetIndex:
		return t.assetIndexes
	case types.KindVersion:
		return t.version
	case types.KindVersionNative:
		return t.versionNatives
	case types.KindRuntime:
		return t.runtime
	default:
		return t.root
	}
}

// Rel returns the directory for kind relative to the root.
func (t Tree) Rel(kind types.Kind) string {
	rel, err := filepath.Rel(t.root, t.Dir(kind))
	if err != nil {
		// Every directory is built under root, so Rel cannot fail.
		return t.Dir(kind)
	}
	return rel
}

// Abs joins a root-relative path onto the root.
func (t Tree) Abs(rel string) string {
	return filepath.Join(t.root, rel)
}

// VersionManifestPath is versions/<id>/<id>.json.
func (t Tree) VersionManifestPath() string {
	return ManifestPath(t.root, t.versionID)
}

// VersionJarRel is the root-relative path of versions/<id>/<id>.jar.
func (t Tree) VersionJarRel() string {
	return filepath.Join(t.Rel(types.KindVersion), t.versionID+".jar")
}

// AssetIndexRel is the root-relative path of assets/indexes/<name>.json.
func (t Tree) AssetIndexRel(name string) string {
	return filepath.Join(t.Rel(types.KindAssetIndex), name+".json")
}

// AssetObjectRel is the root-relative content-addressed path of an asset
// object: assets/objects/<hash[0:2]>/<hash>. The hash must be at least two
// characters long.
func (t Tree) AssetObjectRel(hash string) string {
	return filepath.Join(t.Rel(types.KindAssetObject), hash[:2], hash)
}

// RuntimeManifestRel is the root-relative path of jre/<component>.json.
func (t Tree) RuntimeManifestRel() string {
	return filepath.Join(RuntimeDir, t.runtimeID+".json")
}

// ManifestPath returns the cached manifest location for a version id under root.
func ManifestPath(root, versionID string) string {
	return filepath.Join(root, VersionsDir, versionID, versionID+".json")
}

// ManifestRel returns the root-relative cached manifest path for a version id.
func ManifestRel(versionID string) string {
	return filepath.Join(VersionsDir, versionID, versionID+".json")
}

// VersionListRel is the root-relative location of the cached version list.
func VersionListRel() string {
	return filepath.Join(VersionsDir, VersionListFile)
}

// RuntimeIndexRel is the root-relative location of the cached runtime
// component index.
func RuntimeIndexRel() string {
	return filepath.Join(RuntimeDir, RuntimeIndexFile)
}
