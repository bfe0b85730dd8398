package releases

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/arthur-debert/releasekit/pkg/datastore"
	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/filesystem"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/arthur-debert/releasekit/pkg/paths"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultRetain is the number of releases kept by a prune when no
	// other value is configured.
	DefaultRetain = 7

	// DefaultStagingTTL is the age after which leftover staging entries
	// are removed by Prune.
	DefaultStagingTTL = time.Hour
)

// Options configures a Manager.
type Options struct {
	// Exclude lists base-name globs skipped when copying an artifact.
	Exclude []string

	// DryRun makes mutating operations report what they would do without
	// touching the store.
	DryRun bool

	// StagingTTL overrides DefaultStagingTTL.
	StagingTTL time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Manager owns a release store and its live pointer.
type Manager struct {
	fs     filesystem.FS
	store  *datastore.Store
	opts   Options
	logger zerolog.Logger

	// mu serialises id allocation within the process; last is the most
	// recent id this process reserved.
	mu   sync.Mutex
	last types.ReleaseID
}

// New creates a Manager for the store described by p.
func New(fs filesystem.FS, p paths.Paths, opts Options) *Manager {
	if opts.StagingTTL <= 0 {
		opts.StagingTTL = DefaultStagingTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Manager{
		fs:     fs,
		store:  datastore.New(fs, p),
		opts:   opts,
		logger: logging.GetLogger("releases"),
	}
}

// Store returns the underlying release store.
func (m *Manager) Store() *datastore.Store {
	return m.store
}

// DryRun reports whether the manager only plans changes.
func (m *Manager) DryRun() bool {
	return m.opts.DryRun
}

func (m *Manager) now() time.Time {
	return m.opts.Clock().UTC()
}

// List returns a lazy, newest-first sequence of all releases. Every
// iteration reads the store afresh. Releases removed while iterating are
// skipped; other read failures are yielded as errors.
func (m *Manager) List(ctx context.Context) iter.Seq2[types.Release, error] {
	return func(yield func(types.Release, error) bool) {
		ids, err := m.store.ReleaseIDs()
		if err != nil {
			yield(types.Release{}, err)
			return
		}

		live, hasLive, err := m.store.ReadLive()
		if err != nil {
			m.logger.Warn().Err(err).Msg("Cannot read live pointer, listing without live marker")
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(types.Release{}, cancelled(err, "list"))
				return
			}

			rel, err := m.store.Get(id)
			if err != nil {
				if errors.IsErrorCode(err, errors.ErrUnknownRelease) {
					continue
				}
				if !yield(types.Release{}, err) {
					return
				}
				continue
			}
			rel.Live = hasLive && id == live
			if !yield(rel, nil) {
				return
			}
		}
	}
}

// Releases collects List into a slice.
func (m *Manager) Releases(ctx context.Context) ([]types.Release, error) {
	var out []types.Release
	for rel, err := range m.List(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}

// Get returns a single release.
func (m *Manager) Get(ctx context.Context, id types.ReleaseID) (types.Release, error) {
	if err := ctx.Err(); err != nil {
		return types.Release{}, cancelled(err, "get")
	}
	rel, err := m.store.Get(id)
	if err != nil {
		return types.Release{}, err
	}
	if live, ok, err := m.store.ReadLive(); err == nil && ok && live == id {
		rel.Live = true
	}
	return rel, nil
}

// Current returns the live release. ok is false when nothing has been
// activated yet.
func (m *Manager) Current(ctx context.Context) (rel types.Release, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return types.Release{}, false, cancelled(err, "current")
	}
	live, ok, err := m.store.ReadLive()
	if err != nil || !ok {
		return types.Release{}, false, err
	}
	rel, err = m.store.Get(live)
	if err != nil {
		return types.Release{}, false, errors.Wrapf(err, errors.ErrStoreRead, "live pointer references missing release %s", live).
			WithDetail("release", live.String())
	}
	rel.Live = true
	return rel, true, nil
}

func cancelled(err error, operation string) error {
	return errors.Wrapf(err, errors.ErrCancelled, "%s cancelled", operation).
		WithDetail("operation", operation)
}
