package topics

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layout.md":          {Data: []byte("# Store layout\n\nreleases/ and current")},
		"option-dry-run.txt": {Data: []byte("Dry run plans without changing the store")},
		"notes.json":         {Data: []byte("{}")},
		"nested/retention.txt": {
			Data: []byte("Seven releases are kept"),
		},
	}
}

func TestTopicManager_ScanTopics(t *testing.T) {
	tm := New(testFS())
	require.NoError(t, tm.scanTopics())

	assert.Equal(t, []string{"layout", "option-dry-run", "retention"}, tm.ListTopics())

	topic, ok := tm.GetTopic("retention")
	require.True(t, ok)
	assert.Equal(t, "nested/retention.txt", topic.FilePath)

	_, ok = tm.GetTopic("notes")
	assert.False(t, ok, "unsupported extensions are ignored")
}

func TestTopicManager_FlagTopics(t *testing.T) {
	tm := New(testFS())
	require.NoError(t, tm.scanTopics())

	for _, name := range []string{"--dry-run", "-dry-run", "dry-run", "option-dry-run"} {
		topic, ok := tm.GetTopic(name)
		require.True(t, ok, name)
		assert.Equal(t, "option-dry-run", topic.Name)
	}
}

func TestTopicManager_CustomExtensions(t *testing.T) {
	tm := NewWithOptions(testFS(), Options{Extensions: []string{".json"}})
	require.NoError(t, tm.scanTopics())
	assert.Equal(t, []string{"notes"}, tm.ListTopics())
}

type upperRenderer struct{}

func (upperRenderer) Render(content, format string) string {
	if format == ".md" {
		return strings.ToUpper(content)
	}
	return content
}

func newTestRoot(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	root := &cobra.Command{Use: "releasekit"}
	root.AddCommand(&cobra.Command{Use: "list", Short: "List releases", Run: func(*cobra.Command, []string) {}})
	require.NoError(t, InitializeWithOptions(root, testFS(), Options{Renderer: upperRenderer{}}))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	return root, &out
}

func TestHelpCommand(t *testing.T) {
	t.Run("topic", func(t *testing.T) {
		root, out := newTestRoot(t)
		root.SetArgs([]string{"help", "layout"})
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), "# STORE LAYOUT")
	})

	t.Run("topic_list", func(t *testing.T) {
		root, out := newTestRoot(t)
		root.SetArgs([]string{"help", "topics"})
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), "General topics:")
		assert.Contains(t, out.String(), "  layout")
		assert.Contains(t, out.String(), "  --dry-run")
		assert.Contains(t, out.String(), "releasekit help <topic>")
	})

	t.Run("command", func(t *testing.T) {
		root, out := newTestRoot(t)
		root.SetArgs([]string{"help", "list"})
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), "List releases")
	})
}

func TestGlamourRenderer_PassesThroughText(t *testing.T) {
	r := NewGlamourRenderer()
	assert.Equal(t, "plain", r.Render("plain", ".txt"))

	r.Style = "notty"
	out := r.Render("# Title\n\nbody", ".md")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body")
}
