package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgument_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var args []Argument
	err := json.Unmarshal([]byte(`[
		"-cp",
		{"rules": [{"action": "allow"}], "value": "-Xss1M"},
		{"rules": [{"action": "allow"}], "value": ["--width", "800"]}
	]`), &args)
	require.NoError(t, err)
	require.Len(t, args, 3)

	assert.Equal(t, Constant("-cp"), args[0])
	assert.True(t, args[1].Conditional)
	assert.Equal(t, []string{"-Xss1M"}, args[1].Value)
	assert.Equal(t, []string{"--width", "800"}, args[2].Value)
}

func TestArgument_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal([]Argument{
		Constant("-cp"),
		{Rules: []Rule{{Action: ActionAllow}}, Value: []string{"-Xss1M"}, Conditional: true},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `["-cp", {"rules":[{"action":"allow"}],"value":"-Xss1M"}]`, string(data))
}

func TestResolveArguments(t *testing.T) {
	t.Parallel()

	root := parseRoot(t, "root.json")

	t.Run("game args with default features", func(t *testing.T) {
		t.Parallel()

		got := ResolveArguments(root.Arguments.Game, linux64, DefaultFeatures())
		assert.Equal(t, []string{
			"--username", "${auth_player_name}",
			"--width", "${resolution_width}", "--height", "${resolution_height}",
		}, got)
	})

	t.Run("game args with no features", func(t *testing.T) {
		t.Parallel()

		got := ResolveArguments(root.Arguments.Game, linux64, nil)
		assert.Equal(t, []string{"--username", "${auth_player_name}"}, got)
	})

	t.Run("jvm args on osx", func(t *testing.T) {
		t.Parallel()

		got := ResolveArguments(root.Arguments.JVM, osx64, nil)
		assert.Equal(t, []string{
			"-XstartOnFirstThread",
			"-Djava.library.path=${natives_directory}", "-cp", "${classpath}",
		}, got)
	})

	t.Run("jvm args on 32-bit windows", func(t *testing.T) {
		t.Parallel()

		got := ResolveArguments(root.Arguments.JVM, windows32, nil)
		assert.Equal(t, []string{
			"-Xss1M",
			"-Djava.library.path=${natives_directory}", "-cp", "${classpath}",
		}, got)
	})
}
