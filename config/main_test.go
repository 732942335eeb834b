package config

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte(`
training:
  epochs: 20
qlearning:
  epsilon: 0.3
log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, 20, c.Training.Epochs)
	assert.Equal(t, 50, c.Training.MaximumActions)
	assert.Equal(t, 0.3, c.QLearning.Epsilon)
	assert.Equal(t, 0.5, c.QLearning.LearningRate)
	assert.Equal(t, "debug", c.LogConfig.Level)
	assert.Equal(t, "text", c.LogConfig.Format)
	assert.Equal(t, "route:", c.Redis.Prefix)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte(`training: [1, 2]`))
	assert.Error(t, err)

	_, err = Parse([]byte("training:\n  runs: 0\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("training:\n  walk_limit: -1\n"))
	assert.Error(t, err)
}

func TestParseConfigFile(t *testing.T) {
	file := path.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server_addr: 0.0.0.0:9000\n"), 0644))
	c, err := ParseConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", c.ServerAddr)

	_, err = ParseConfig(path.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
