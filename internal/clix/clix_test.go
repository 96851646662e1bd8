package clix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavedoc/weave/internal/clix"
)

func TestStringFlagDefaultsToProvidedValue(t *testing.T) {
	var value string
	cmd := clix.New("greet", "say hello")
	cmd.WithStringVar(&value, "name", "n", "name to greet", "", "world")
	cmd.WithRun(func(args []string) error { return nil })
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "world", value)
}

func TestStringFlagOverridesDefault(t *testing.T) {
	var value string
	cmd := clix.New("greet", "say hello")
	cmd.WithStringVar(&value, "name", "n", "name to greet", "", "world")
	cmd.WithRun(func(args []string) error { return nil })
	cmd.SetArgs([]string{"--name", "gopher"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "gopher", value)
}

func TestSubcommandDispatchesToChild(t *testing.T) {
	var ran bool
	root := clix.App("tool", "a tool")
	child := clix.New("child", "does a thing")
	child.WithRun(func(args []string) error {
		ran = true
		return nil
	})
	root.WithCommand(child)
	root.SetArgs([]string{"child"})

	require.NoError(t, root.Execute())
	assert.True(t, ran)
}

func TestExactArgsRejectsWrongCount(t *testing.T) {
	cmd := clix.New("one-arg", "needs exactly one arg")
	cmd.WithExactArgs(1)
	cmd.WithRun(func(args []string) error { return nil })
	cmd.SetArgs([]string{})

	assert.Error(t, cmd.Execute())
}
