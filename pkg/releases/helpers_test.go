package releases_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/releasekit/pkg/artifact"
	"github.com/arthur-debert/releasekit/pkg/datastore/testutil"
	"github.com/arthur-debert/releasekit/pkg/filesystem"
	"github.com/arthur-debert/releasekit/pkg/paths"
	"github.com/arthur-debert/releasekit/pkg/releases"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: baseTime, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type env struct {
	mgr   *releases.Manager
	fs    *testutil.FaultFS
	paths paths.Paths
	clock *stepClock
}

func setupManager(t *testing.T, opts releases.Options) *env {
	t.Helper()

	p, err := paths.New(filepath.Join(t.TempDir(), "site"), paths.DefaultLayout())
	require.NoError(t, err)

	clock := newStepClock(time.Minute)
	if opts.Clock == nil {
		opts.Clock = clock.Now
	}
	ffs := testutil.NewFaultFS(filesystem.NewOS())
	return &env{
		mgr:   releases.New(ffs, p, opts),
		fs:    ffs,
		paths: p,
		clock: clock,
	}
}

// buildOutput writes a static site whose index.html holds marker.
func buildOutput(t *testing.T, marker string) *artifact.Artifact {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(marker), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "site.css"), []byte("body{}"), 0644))

	a, err := artifact.Open(dir)
	require.NoError(t, err)
	return a
}

func (e *env) publish(t *testing.T, marker string) types.ReleaseID {
	t.Helper()
	id, err := e.mgr.Publish(context.Background(), buildOutput(t, marker))
	require.NoError(t, err)
	return id
}

// servedMarker reads index.html through the live pointer, the way a web
// server would.
func (e *env) servedMarker(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.paths.CurrentLink(), "index.html"))
	require.NoError(t, err)
	return string(data)
}

func (e *env) liveID(t *testing.T) types.ReleaseID {
	t.Helper()
	id, ok, err := e.mgr.Store().ReadLive()
	require.NoError(t, err)
	require.True(t, ok, "expected a live release")
	return id
}

func (e *env) storedIDs(t *testing.T) []types.ReleaseID {
	t.Helper()
	ids, err := e.mgr.Store().ReleaseIDs()
	require.NoError(t, err)
	return ids
}
