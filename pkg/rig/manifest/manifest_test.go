package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func parseRoot(t *testing.T, name string) *Root {
	t.Helper()

	m, err := Parse(readFixture(t, name))
	require.NoError(t, err)
	root, ok := m.(*Root)
	require.True(t, ok, "expected *Root, got %T", m)
	return root
}

func TestParse_Root(t *testing.T) {
	t.Parallel()

	root := parseRoot(t, "root.json")

	assert.Equal(t, "1.20.1", root.ManifestID())
	assert.Equal(t, "net.minecraft.client.main.Main", root.MainClass)
	assert.Equal(t, TypeRelease, root.Type)
	assert.Equal(t, "5", root.AssetIndex.ID)
	assert.Equal(t, "5", root.Assets)
	assert.Equal(t, int64(23028853), root.Downloads.Client.Size)
	assert.NotNil(t, root.Downloads.Server)
	assert.Nil(t, root.Downloads.ClientMappings)
	assert.Equal(t, JavaVersion{Component: "java-runtime-gamma", MajorVersion: 17}, root.JavaVersion)
	require.NotNil(t, root.Logging)
	require.NotNil(t, root.Logging.Client)
	assert.Equal(t, "client-1.12.xml", root.Logging.Client.File.ID)

	require.Len(t, root.Libraries, 3)
	assert.IsType(t, &DefaultLibrary{}, root.Libraries[0])
	assert.IsType(t, &SeminativeLibrary{}, root.Libraries[1])
	assert.IsType(t, &NativeLibrary{}, root.Libraries[2])

	native := root.Libraries[2].(*NativeLibrary)
	require.NotNil(t, native.Artifact)
	assert.Len(t, native.Classifiers, 2)
	assert.Equal(t, "natives-linux", native.Natives[types.OSLinux])

	assert.Len(t, root.Arguments.Game, 4)
	assert.Len(t, root.Arguments.JVM, 5)
}

func TestParse_Inherited(t *testing.T) {
	t.Parallel()

	m, err := Parse(readFixture(t, "inherited.json"))
	require.NoError(t, err)

	child, ok := m.(*Inherited)
	require.True(t, ok, "expected *Inherited, got %T", m)
	assert.Equal(t, "fabric-loader-0.14.21-1.20.1", child.ID)
	assert.Equal(t, "1.20.1", child.InheritsFrom)
	require.Len(t, child.Libraries, 2)

	lib, ok := child.Libraries[0].(*CustomLibrary)
	require.True(t, ok)
	assert.Equal(t, "net.fabricmc:intermediary:1.20.1", lib.LibraryName())
	assert.Equal(t, "https://maven.fabricmc.net/", lib.URL)
}

func TestParse_LegacyArguments(t *testing.T) {
	t.Parallel()

	root := parseRoot(t, "legacy.json")

	got := ResolveArguments(root.Arguments.Game, linux64, nil)
	assert.Equal(t, []string{
		"--username", "${auth_player_name}",
		"--version", "${version_name}",
		"--gameDir", "${game_directory}",
	}, got)
	assert.Empty(t, root.Arguments.JVM)
	assert.Equal(t, "1.7.10", root.Assets)
	assert.Equal(t, JavaVersion{Component: DefaultJavaComponent, MajorVersion: DefaultJavaMajor}, root.JavaVersion)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"id": `},
		{"missing id", `{"mainClass": "a"}`},
		{"missing main class", `{"id":"a","assetIndex":{"id":"1","url":"u"},"downloads":{"client":{"url":"u"}}}`},
		{"missing asset index", `{"id":"a","mainClass":"m","downloads":{"client":{"url":"u"}}}`},
		{"missing client", `{"id":"a","mainClass":"m","assetIndex":{"id":"1","url":"u"}}`},
		{"library without name", `{"id":"a","inheritsFrom":"b","libraries":[{"url":"u"}]}`},
		{"downloads without artifact", `{"id":"a","inheritsFrom":"b","libraries":[{"name":"g:a:1","downloads":{}}]}`},
		{"bad argument value", `{"id":"a","inheritsFrom":"b","arguments":{"game":[{"rules":[],"value":3}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.data))
			require.ErrorIs(t, err, ErrMalformedManifest)
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	x := &CustomLibrary{Name: "g:x:1", URL: "https://example.invalid/"}
	y := &DefaultLibrary{Name: "g:y:1"}

	parent := &Root{
		ID:        "a",
		MainClass: "parent.Main",
		Time:      "t0",
		Libraries: Libraries{y},
		Arguments: Arguments{Game: []Argument{Constant("--p")}, JVM: []Argument{Constant("-Dp")}},
	}
	child := &Inherited{
		ID:           "b",
		InheritsFrom: "a",
		MainClass:    "child.Main",
		Time:         "t1",
		Libraries:    Libraries{x},
		Arguments:    Arguments{Game: []Argument{Constant("--c")}},
	}

	merged := Merge(child, parent)

	assert.Equal(t, "b", merged.ID)
	assert.Equal(t, "child.Main", merged.MainClass)
	assert.Equal(t, "t1", merged.Time)
	assert.Equal(t, Libraries{y, x}, merged.Libraries)
	assert.Equal(t, []string{"--p", "--c"}, ResolveArguments(merged.Arguments.Game, linux64, nil))
	assert.Equal(t, []string{"-Dp"}, ResolveArguments(merged.Arguments.JVM, linux64, nil))

	// The parent is left untouched.
	assert.Equal(t, "a", parent.ID)
	assert.Equal(t, Libraries{y}, parent.Libraries)
	assert.Len(t, parent.Arguments.Game, 1)
}

func TestMerge_Fixtures(t *testing.T) {
	t.Parallel()

	parent := parseRoot(t, "root.json")
	m, err := Parse(readFixture(t, "inherited.json"))
	require.NoError(t, err)

	merged := Merge(m.(*Inherited), parent)

	assert.Equal(t, "fabric-loader-0.14.21-1.20.1", merged.ID)
	assert.Equal(t, "net.fabricmc.loader.impl.launch.knot.KnotClient", merged.MainClass)
	assert.Equal(t, parent.AssetIndex, merged.AssetIndex)
	assert.Equal(t, parent.JavaVersion, merged.JavaVersion)
	require.Len(t, merged.Libraries, 5)
	assert.Equal(t, "net.fabricmc:fabric-loader:0.14.21", merged.Libraries[4].LibraryName())
	assert.Len(t, merged.Arguments.JVM, 6)
}
