// pkg/releases/publish_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: Real filesystem
// PURPOSE: Test release creation, id allocation and publish failures

package releases_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/releasekit/pkg/artifact"
	"github.com/arthur-debert/releasekit/pkg/datastore/testutil"
	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/filesystem"
	"github.com/arthur-debert/releasekit/pkg/releases"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return baseTime }

func TestPublish_CopiesContent(t *testing.T) {
	e := setupManager(t, releases.Options{})

	id := e.publish(t, "hello")
	assert.Equal(t, types.ReleaseID("20240301120000"), id)

	data, err := os.ReadFile(filepath.Join(e.paths.ReleasePath(id.String()), "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))

	rel, err := e.mgr.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, rel.Files)
	assert.Equal(t, int64(len("hello")+len("body{}")), rel.Size)

	entries, err := os.ReadDir(e.paths.StagingDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "staging must be empty after a publish")
}

func TestPublish_IncompleteArtifact(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) *artifact.Artifact
		exclude []string
	}{
		{
			name: "missing",
			setup: func(t *testing.T) *artifact.Artifact {
				a, err := artifact.Open(filepath.Join(t.TempDir(), "nope"))
				require.NoError(t, err)
				return a
			},
		},
		{
			name: "empty_tree",
			setup: func(t *testing.T) *artifact.Artifact {
				mem := afero.NewMemMapFs()
				require.NoError(t, mem.MkdirAll("/public/empty", 0755))
				return artifact.FromFs(mem, "/public")
			},
		},
		{
			name: "everything_excluded",
			setup: func(t *testing.T) *artifact.Artifact {
				return buildOutput(t, "x")
			},
			exclude: []string{"*.html", "*.css"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setupManager(t, releases.Options{Exclude: tt.exclude})

			_, err := e.mgr.Publish(context.Background(), tt.setup(t))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrIncompleteArtifact), err.Error())
			assert.Empty(t, e.storedIDs(t))
		})
	}
}

func TestPublish_ExcludePatterns(t *testing.T) {
	e := setupManager(t, releases.Options{Exclude: []string{"css", ".DS_Store"}})

	id := e.publish(t, "x")

	assert.FileExists(t, filepath.Join(e.paths.ReleasePath(id.String()), "index.html"))
	assert.NoDirExists(t, filepath.Join(e.paths.ReleasePath(id.String()), "css"))
}

func TestPublish_DistinctOrderedIDs(t *testing.T) {
	e := setupManager(t, releases.Options{Clock: fixedClock})

	var ids []types.ReleaseID
	for i := 0; i < 12; i++ {
		ids = append(ids, e.publish(t, "x"))
	}

	assert.Equal(t, types.ReleaseID("20240301120000"), ids[0])
	assert.Equal(t, types.ReleaseID("20240301120000-1"), ids[1])
	assert.Equal(t, types.ReleaseID("20240301120000-11"), ids[11])
	for i := 1; i < len(ids); i++ {
		assert.Equal(t, 1, ids[i].Compare(ids[i-1]), "%s must sort after %s", ids[i], ids[i-1])
	}

	stored := e.storedIDs(t)
	assert.Equal(t, ids[11], stored[0])
	assert.Equal(t, ids[0], stored[len(stored)-1])
}

func TestPublish_ClockGoingBackwards(t *testing.T) {
	e := setupManager(t, releases.Options{})

	first := e.publish(t, "x")
	e.clock.Set(baseTime.Add(-time.Hour))
	second := e.publish(t, "y")

	assert.Equal(t, 1, second.Compare(first))
}

func TestPublish_ConcurrentPublishers(t *testing.T) {
	e := setupManager(t, releases.Options{Clock: fixedClock})
	// A second manager on the same store stands in for another process.
	other := releases.New(filesystem.NewOS(), e.paths, releases.Options{Clock: fixedClock})

	const n = 8
	output := buildOutput(t, "x")
	var wg sync.WaitGroup
	results := make(chan types.ReleaseID, 2*n)
	failures := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		for _, mgr := range []*releases.Manager{e.mgr, other} {
			wg.Add(1)
			go func(mgr *releases.Manager) {
				defer wg.Done()
				id, err := mgr.Publish(context.Background(), output)
				if err != nil {
					failures <- err
					return
				}
				results <- id
			}(mgr)
		}
	}
	wg.Wait()
	close(results)
	close(failures)

	for err := range failures {
		t.Errorf("publish failed: %v", err)
	}
	seen := map[types.ReleaseID]bool{}
	for id := range results {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 2*n)
	assert.Len(t, e.storedIDs(t), 2*n)
}

func TestPublish_DoesNotTouchPointer(t *testing.T) {
	e := setupManager(t, releases.Options{})
	ctx := context.Background()

	a := e.publish(t, "A")
	require.NoError(t, e.mgr.Activate(ctx, a))
	e.publish(t, "B")

	assert.Equal(t, a, e.liveID(t))
	assert.Equal(t, "A", e.servedMarker(t))
}

func TestPublish_Cancelled(t *testing.T) {
	e := setupManager(t, releases.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.mgr.Publish(ctx, buildOutput(t, "x"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, e.storedIDs(t))
}

func TestPublish_StoreWriteFailure(t *testing.T) {
	tests := []struct {
		name  string
		fault func(e *env, id types.ReleaseID)
	}{
		{
			name: "register_rename_fails",
			fault: func(e *env, id types.ReleaseID) {
				e.fs.Fail(testutil.OpRename, filepath.Join(e.paths.StagingDir(), "publish-"+id.String()), fs.ErrPermission)
			},
		},
		{
			name: "copy_fails",
			fault: func(e *env, id types.ReleaseID) {
				e.fs.FailUnder(testutil.OpCreate, filepath.Join(e.paths.StagingDir(), "publish-"+id.String(), "css"), fs.ErrPermission)
			},
		},
		{
			name: "manifest_fails",
			fault: func(e *env, id types.ReleaseID) {
				e.fs.FailUnder(testutil.OpWriteFile, e.paths.StagingDir(), fs.ErrPermission)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setupManager(t, releases.Options{Clock: fixedClock})
			tt.fault(e, types.NewReleaseID(baseTime, 0))

			_, err := e.mgr.Publish(context.Background(), buildOutput(t, "x"))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrStoreWrite), err.Error())

			assert.Empty(t, e.storedIDs(t), "nothing partial may be referenced")
			entries, err := os.ReadDir(e.paths.ManifestsDir())
			require.NoError(t, err)
			assert.Empty(t, entries)
			entries, err = os.ReadDir(e.paths.StagingDir())
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestPublish_DryRun(t *testing.T) {
	e := setupManager(t, releases.Options{DryRun: true})

	id, err := e.mgr.Publish(context.Background(), buildOutput(t, "x"))
	require.NoError(t, err)
	assert.Equal(t, types.ReleaseID("20240301120000"), id)
	assert.NoDirExists(t, e.paths.ReleasesDir())
}

func backdateTree(t *testing.T, root string, age time.Duration) {
	t.Helper()
	then := time.Now().Add(-age)
	require.NoError(t, filepath.Walk(root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return os.Chtimes(path, then, then)
	}))
}

func TestPublish_SurvivesConcurrentPrune(t *testing.T) {
	e := setupManager(t, releases.Options{Clock: fixedClock})
	id := types.NewReleaseID(baseTime, 0)
	staging := filepath.Join(e.paths.StagingDir(), "publish-"+id.String())

	// A slow copy: by the time index.html is written, everything staged so
	// far looks older than the staging TTL when another deploy prunes.
	var pruneErr error
	e.fs.Before(testutil.OpCreate, func(path string) {
		if path != filepath.Join(staging, "index.html") {
			return
		}
		backdateTree(t, staging, 2*releases.DefaultStagingTTL)
		other := releases.New(filesystem.NewOS(), e.paths, releases.Options{})
		_, pruneErr = other.Prune(context.Background(), releases.DefaultRetain)
	})

	got, err := e.mgr.Publish(context.Background(), buildOutput(t, "A"))
	require.NoError(t, err)
	require.NoError(t, pruneErr)
	assert.Equal(t, id, got)

	for _, name := range []string{"index.html", filepath.Join("css", "site.css")} {
		assert.FileExists(t, filepath.Join(e.paths.ReleasePath(id.String()), name))
	}
	rel, err := e.mgr.Store().Get(id)
	require.NoError(t, err)
	assert.Equal(t, 2, rel.Files)
}

func TestPublish_StagingRemovedMidCopy(t *testing.T) {
	e := setupManager(t, releases.Options{Clock: fixedClock})
	id := types.NewReleaseID(baseTime, 0)
	staging := filepath.Join(e.paths.StagingDir(), "publish-"+id.String())

	e.fs.Before(testutil.OpCreate, func(path string) {
		if path == filepath.Join(staging, "index.html") {
			require.NoError(t, os.RemoveAll(staging))
		}
	})

	_, err := e.mgr.Publish(context.Background(), buildOutput(t, "A"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrStoreWrite), err.Error())

	assert.Empty(t, e.storedIDs(t), "a partial tree must never be registered")
	assert.NoDirExists(t, staging, "the staging directory must not be rebuilt")
	entries, err := os.ReadDir(e.paths.ManifestsDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
