// pkg/artifact/artifact_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: afero MemMapFs, real filesystem for symlink cases
// PURPOSE: Test build output validation and copying

package artifact_test

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/releasekit/pkg/artifact"
	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/filesystem"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memSite(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/public", 0755))
	for name, content := range files {
		path := filepath.Join("/public", name)
		require.NoError(t, mem.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(mem, path, []byte(content), 0644))
	}
	return mem
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) *artifact.Artifact
		wantErr bool
	}{
		{
			name: "complete_tree",
			setup: func(t *testing.T) *artifact.Artifact {
				return artifact.FromFs(memSite(t, map[string]string{"index.html": "<h1>hi</h1>"}), "/public")
			},
		},
		{
			name: "nested_file_only",
			setup: func(t *testing.T) *artifact.Artifact {
				return artifact.FromFs(memSite(t, map[string]string{"posts/a/index.html": "a"}), "/public")
			},
		},
		{
			name: "missing_tree",
			setup: func(t *testing.T) *artifact.Artifact {
				return artifact.FromFs(afero.NewMemMapFs(), "/public")
			},
			wantErr: true,
		},
		{
			name: "empty_tree",
			setup: func(t *testing.T) *artifact.Artifact {
				return artifact.FromFs(memSite(t, nil), "/public")
			},
			wantErr: true,
		},
		{
			name: "only_empty_directories",
			setup: func(t *testing.T) *artifact.Artifact {
				mem := memSite(t, nil)
				require.NoError(t, mem.MkdirAll("/public/css/vendor", 0755))
				return artifact.FromFs(mem, "/public")
			},
			wantErr: true,
		},
		{
			name: "root_is_a_file",
			setup: func(t *testing.T) *artifact.Artifact {
				mem := afero.NewMemMapFs()
				require.NoError(t, afero.WriteFile(mem, "/public", []byte("x"), 0644))
				return artifact.FromFs(mem, "/public")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.setup(t).Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrIncompleteArtifact), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCopyTo(t *testing.T) {
	mem := memSite(t, map[string]string{
		"index.html":         "<h1>home</h1>",
		"posts/hello.html":   "<p>hello</p>",
		"css/main.css":       "body{}",
		".DS_Store":          "junk",
		".git/HEAD":          "ref: refs/heads/main",
		"posts/.DS_Store":    "junk",
		"posts/draft/x.html": "draft",
	})
	a := artifact.FromFs(mem, "/public")

	dstMem := afero.NewMemMapFs()
	dst := filesystem.NewAferoFS(dstMem)
	require.NoError(t, dst.MkdirAll("/store/.staging/r1", 0755))

	stats, err := a.CopyTo(context.Background(), dst, "/store/.staging/r1", []string{".DS_Store", ".git", "draft"})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, int64(len("<h1>home</h1>")+len("<p>hello</p>")+len("body{}")), stats.Size)
	assert.Contains(t, stats.Digest, "sha256:")

	content, err := dst.ReadFile("/store/.staging/r1/posts/hello.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", string(content))

	for _, skipped := range []string{".DS_Store", ".git/HEAD", "posts/.DS_Store", "posts/draft/x.html"} {
		_, err := dst.Stat(filepath.Join("/store/.staging/r1", skipped))
		assert.True(t, os.IsNotExist(err), "%s should be excluded", skipped)
	}

	// Same content, same digest
	dst2 := filesystem.NewAferoFS(afero.NewMemMapFs())
	require.NoError(t, dst2.MkdirAll("/out", 0755))
	stats2, err := a.CopyTo(context.Background(), dst2, "/out", []string{".DS_Store", ".git", "draft"})
	require.NoError(t, err)
	assert.Equal(t, stats.Digest, stats2.Digest)
}

func TestCopyToCancelled(t *testing.T) {
	a := artifact.FromFs(memSite(t, map[string]string{"index.html": "x", "about.html": "y"}), "/public")
	dst := filesystem.NewAferoFS(afero.NewMemMapFs())
	require.NoError(t, dst.MkdirAll("/out", 0755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.CopyTo(ctx, dst, "/out", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenPreservesSymlinks(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "posts", "2024"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "posts", "2024", "index.html"), []byte("2024"), 0644))
	require.NoError(t, os.Symlink(filepath.Join("posts", "2024"), filepath.Join(src, "latest")))

	// Open through a symlinked root
	linkedRoot := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.Symlink(src, linkedRoot))

	a, err := artifact.Open(linkedRoot)
	require.NoError(t, err)
	require.NoError(t, a.Validate())

	dstRoot := filepath.Join(t.TempDir(), "release")
	require.NoError(t, os.Mkdir(dstRoot, 0755))

	stats, err := a.CopyTo(context.Background(), filesystem.NewOS(), dstRoot, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.Links)

	target, err := os.Readlink(filepath.Join(dstRoot, "latest"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("posts", "2024"), target)

	content, err := os.ReadFile(filepath.Join(dstRoot, "latest", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "2024", string(content))
}

func TestCopyToStreamsLargeFiles(t *testing.T) {
	video := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 3<<20)
	mem := memSite(t, map[string]string{"index.html": "<video src=media/intro.mp4>"})
	require.NoError(t, mem.MkdirAll("/public/media", 0755))
	require.NoError(t, afero.WriteFile(mem, "/public/media/intro.mp4", video, 0644))
	a := artifact.FromFs(mem, "/public")

	dstRoot := filepath.Join(t.TempDir(), "release")
	require.NoError(t, os.Mkdir(dstRoot, 0755))

	stats, err := a.CopyTo(context.Background(), filesystem.NewOS(), dstRoot, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Dirs)
	assert.Equal(t, int64(len(video)+len("<video src=media/intro.mp4>")), stats.Size)

	copied, err := os.ReadFile(filepath.Join(dstRoot, "media", "intro.mp4"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(video, copied))

	// Another backend yields the same digest.
	memDst := filesystem.NewAferoFS(afero.NewMemMapFs())
	require.NoError(t, memDst.MkdirAll("/out", 0755))
	again, err := a.CopyTo(context.Background(), memDst, "/out", nil)
	require.NoError(t, err)
	assert.Equal(t, stats.Digest, again.Digest)
}

func TestCopyToMissingRootIsNotRebuilt(t *testing.T) {
	a := artifact.FromFs(memSite(t, map[string]string{"posts/hello.html": "<p>hello</p>"}), "/public")

	dstRoot := filepath.Join(t.TempDir(), "release")

	_, err := a.CopyTo(context.Background(), filesystem.NewOS(), dstRoot, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = os.Stat(dstRoot)
	assert.True(t, os.IsNotExist(err), "the destination root must not be recreated")
}
