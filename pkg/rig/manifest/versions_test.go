package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const versionList = `{
  "latest": {"release": "1.20.1", "snapshot": "23w31a"},
  "versions": [
    {"id": "23w31a", "type": "snapshot", "url": "https://example.invalid/23w31a.json", "sha1": "aa"},
    {"id": "1.20.1", "type": "release", "url": "https://example.invalid/1.20.1.json", "sha1": "bb"},
    {"id": "b1.7.3", "type": "old_beta", "url": "https://example.invalid/b1.7.3.json", "sha1": "cc"}
  ]
}`

func TestVersionList(t *testing.T) {
	t.Parallel()

	list, err := ParseVersionList([]byte(versionList))
	require.NoError(t, err)

	v, ok := list.Find("1.20.1")
	require.True(t, ok)
	assert.Equal(t, "bb", v.SHA1)

	v, ok = list.Find("latest-snapshot")
	require.True(t, ok)
	assert.Equal(t, "23w31a", v.ID)

	_, ok = list.Find("0.0.0")
	assert.False(t, ok)

	assert.Len(t, list.Filter(), 3)
	assert.Len(t, list.Filter(TypeRelease, TypeOldBeta), 2)
}

func TestAssetIndex(t *testing.T) {
	t.Parallel()

	idx, err := ParseAssetIndex([]byte(`{"objects": {
		"minecraft/sounds/b.ogg": {"hash": "bbbb", "size": 2},
		"icons/a.png": {"hash": "aaaa", "size": 1}
	}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"icons/a.png", "minecraft/sounds/b.ogg"}, idx.Paths())

	_, err = ParseAssetIndex([]byte(`{}`))
	require.ErrorIs(t, err, ErrMalformedManifest)

	_, err = ParseVersionList([]byte(`[`))
	require.ErrorIs(t, err, ErrMalformedManifest)
}
