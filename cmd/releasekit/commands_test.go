// cmd/releasekit/commands_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem (t.TempDir)
// PURPOSE: Run the CLI end to end against a temporary release store

package releasekit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/paths"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t     *testing.T
	store string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv(paths.EnvConfigDir, filepath.Join(tmp, "config"))
	t.Setenv("RELEASEKIT_LOG_FILE", filepath.Join(tmp, "releasekit.log"))
	t.Setenv(paths.EnvStore, "")
	return &cli{t: t, store: filepath.Join(tmp, "store")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--store", c.store}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) runJSON(v interface{}, args ...string) {
	c.t.Helper()
	out, err := c.run(append(args, "-o", "json")...)
	require.NoError(c.t, err, out)
	require.NoError(c.t, json.Unmarshal([]byte(out), v), out)
}

func (c *cli) publish(args ...string) types.PublishResult {
	c.t.Helper()
	var res types.PublishResult
	c.runJSON(&res, append([]string{"publish", buildDir(c.t, "v")}, args...)...)
	return res
}

func (c *cli) current() types.Release {
	c.t.Helper()
	var rel types.Release
	c.runJSON(&rel, "current")
	return rel
}

func buildDir(t *testing.T, marker string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>"+marker+"</h1>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte("body{}"), 0644))
	return dir
}

func TestPublishActivateRollback(t *testing.T) {
	c := newCLI(t)

	first := c.publish()
	require.NotEmpty(t, first.Release.ID)
	assert.Equal(t, 2, first.Release.Files)
	assert.False(t, first.Release.Live)
	assert.Nil(t, first.Activation, "publish must not activate unless asked")

	var rels []types.Release
	c.runJSON(&rels, "list")
	require.Len(t, rels, 1)
	assert.False(t, rels[0].Live)

	var act types.ActivationResult
	c.runJSON(&act, "activate", first.Release.ID.String())
	assert.True(t, act.Changed)
	assert.Empty(t, act.Previous)
	assert.Equal(t, first.Release.ID, c.current().ID)

	second := c.publish("--activate")
	require.NotNil(t, second.Activation)
	assert.Equal(t, first.Release.ID, second.Activation.Previous)
	assert.Equal(t, second.Release.ID, c.current().ID)

	c.runJSON(&act, "rollback")
	assert.Equal(t, first.Release.ID, act.Release)
	assert.Equal(t, second.Release.ID, act.Previous)
	assert.Equal(t, first.Release.ID, c.current().ID)

	c.runJSON(&act, "rollback", second.Release.ID.String())
	assert.Equal(t, second.Release.ID, c.current().ID)
}

func TestActivateIsIdempotent(t *testing.T) {
	c := newCLI(t)
	id := c.publish("--activate").Release.ID

	var act types.ActivationResult
	c.runJSON(&act, "activate", id.String())
	assert.False(t, act.Changed)
	assert.Equal(t, id, act.Previous)
}

func TestDeploy(t *testing.T) {
	c := newCLI(t)

	var last types.PublishResult
	for i := 0; i < 3; i++ {
		c.runJSON(&last, "deploy", buildDir(t, "site"), "--retain", "2")
	}
	require.NotNil(t, last.Activation)
	require.NotNil(t, last.Prune)
	assert.Len(t, last.Prune.Deleted, 1)
	assert.True(t, last.Release.Live)

	var rels []types.Release
	c.runJSON(&rels, "list")
	require.Len(t, rels, 2)
	assert.Equal(t, last.Release.ID, rels[0].ID)
	assert.True(t, rels[0].Live)
}

func TestDryRunLeavesStoreUntouched(t *testing.T) {
	c := newCLI(t)

	var res types.PublishResult
	c.runJSON(&res, "deploy", buildDir(t, "site"), "--dry-run")
	assert.True(t, res.DryRun)
	assert.NotEmpty(t, res.Release.ID)
	require.NotNil(t, res.Activation)
	assert.True(t, res.Activation.DryRun)

	var rels []types.Release
	c.runJSON(&rels, "list")
	assert.Empty(t, rels)

	out, err := c.run("current")
	require.NoError(t, err)
	assert.Contains(t, out, MsgNoLiveRelease)
}

func TestPrune(t *testing.T) {
	c := newCLI(t)
	for i := 0; i < 3; i++ {
		c.publish()
	}

	var res types.PruneResult
	c.runJSON(&res, "prune", "--retain", "1")
	assert.Len(t, res.Deleted, 2)
	assert.Len(t, res.Kept, 1)
}

func TestConfigFile(t *testing.T) {
	c := newCLI(t)
	cfgPath := filepath.Join(t.TempDir(), "releasekit.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[retention]\nkeep = 1\n\n[publish]\nactivate = true\nprune = true\n"), 0644))

	var res types.PublishResult
	for i := 0; i < 2; i++ {
		c.runJSON(&res, "publish", buildDir(t, "site"), "--config", cfgPath)
	}
	require.NotNil(t, res.Activation)
	require.NotNil(t, res.Prune)
	assert.Equal(t, 1, res.Prune.Retain)
	assert.Len(t, res.Prune.Deleted, 1)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{
			name: "unknown_release",
			args: []string{"show", "20240101120000"},
			code: errors.ErrUnknownRelease,
		},
		{
			name: "activate_invalid_id",
			args: []string{"activate", "latest"},
			code: errors.ErrUnknownRelease,
		},
		{
			name: "rollback_nothing_live",
			args: []string{"rollback"},
			code: errors.ErrNoPriorRelease,
		},
		{
			name: "prune_retain_zero",
			args: []string{"prune", "--retain", "0"},
			code: errors.ErrInvalidInput,
		},
		{
			name: "publish_missing_dir",
			args: []string{"publish", "/does/not/exist"},
			code: errors.ErrIncompleteArtifact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLI(t)
			out, err := c.run(append(tt.args, "-o", "json")...)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)

			var doc map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
			assert.Equal(t, string(tt.code), doc["code"])
		})
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("list", "-o", "xml")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid), "got %v", err)
}

func TestTextOutput(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "No releases published yet")

	id := c.publish("--activate").Release.ID
	out, err = c.run("list", "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, id.String())
}

func TestVersionAndHelp(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "releasekit version dev")

	out, err = c.run("help", "layout")
	require.NoError(t, err)
	assert.Contains(t, out, "Release store layout")

	out, err = c.run("help", "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "retention")
	assert.Contains(t, out, "--dry-run")
}
