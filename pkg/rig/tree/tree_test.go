package tree

import (
	"path/filepath"
	"testing"

	"github.com/jamesainslie/rig/pkg/rig/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Layout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tr, err := New(root, "1.20.1", "java-runtime-gamma")
	require.NoError(t, err)

	tests := []struct {
		kind types.Kind
		want string
	}{
		{types.KindLibrary, filepath.Join(root, "libraries")},
		{types.KindAssetObject, filepath.Join(root, "assets", "objects")},
		{types.KindAssetIndex, filepath.Join(root, "assets", "indexes")},
		{types.KindVersion, filepath.Join(root, "versions", "1.20.1")},
		{types.KindVersionNative, filepath.Join(root, "versions", "1.20.1", "natives")},
		{types.KindRuntime, filepath.Join(root, "jre", "java-runtime-gamma")},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Dir(tt.kind))

			rel, err := filepath.Rel(root, tt.want)
			require.NoError(t, err)
			assert.Equal(t, rel, tr.Rel(tt.kind))
		})
	}
}

func TestTree_FileHelpers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tr, err := New(root, "1.20.1", "java-runtime-gamma")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "versions", "1.20.1", "1.20.1.json"), tr.VersionManifestPath())
	assert.Equal(t, filepath.Join("versions", "1.20.1", "1.20.1.jar"), tr.VersionJarRel())
	assert.Equal(t, filepath.Join("assets", "indexes", "5.json"), tr.AssetIndexRel("5"))
	assert.Equal(t, filepath.Join("jre", "java-runtime-gamma.json"), tr.RuntimeManifestRel())
	assert.Equal(t, filepath.Join(root, "libraries", "a.jar"), tr.Abs(filepath.Join("libraries", "a.jar")))
}

func TestTree_AssetObjectRel(t *testing.T) {
	t.Parallel()

	tr, err := New(t.TempDir(), "x", "y")
	require.NoError(t, err)

	hash := "abc1230000000000000000000000000000000fff"
	assert.Equal(t, filepath.Join("assets", "objects", "ab", hash), tr.AssetObjectRel(hash))
}

func TestNew_RelativeRootIsMadeAbsolute(t *testing.T) {
	t.Parallel()

	tr, err := New("relative/root", "v", "c")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(tr.Root()))
	assert.Equal(t, filepath.Join("versions", "v"), tr.Rel(types.KindVersion))
}
