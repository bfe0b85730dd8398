package releases

import (
	"context"
	stderrors "errors"
	"io/fs"

	"github.com/arthur-debert/releasekit/pkg/artifact"
	"github.com/arthur-debert/releasekit/pkg/datastore"
	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/arthur-debert/releasekit/pkg/types"
)

// maxReserveAttempts bounds the same-second counter search.
const maxReserveAttempts = 1000

// Publish copies a into the store as a new release and returns its id.
// The live pointer is not touched. Cancelling ctx before the release is
// registered leaves nothing visible in the store.
func (m *Manager) Publish(ctx context.Context, a *artifact.Artifact) (types.ReleaseID, error) {
	logger := m.logger.With().Str("operation", "publish").Str("source", a.Root()).Logger()
	defer logging.LogOperationStart(logger)()

	if err := a.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", cancelled(err, "publish")
	}

	if m.opts.DryRun {
		id, err := m.plannedID()
		if err != nil {
			return "", err
		}
		logger.Info().Str("release", id.String()).Bool("dry_run", true).Msg("Would publish release")
		return id, nil
	}

	if err := m.store.Init(); err != nil {
		return "", err
	}

	id, staging, err := m.reserve()
	if err != nil {
		return "", err
	}
	logger = logger.With().Str("release", id.String()).Logger()

	stats, err := a.CopyTo(ctx, m.fs, staging, m.opts.Exclude)
	if err != nil {
		m.store.Abort(id)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", cancelled(ctxErr, "publish")
		}
		return "", errors.Wrapf(err, errors.ErrStoreWrite, "failed to copy build output into release %s", id).
			WithDetail("release", id.String()).
			WithDetail("source", a.Root())
	}
	if stats.Files == 0 {
		m.store.Abort(id)
		return "", errors.Newf(errors.ErrIncompleteArtifact, "every file in %s is excluded", a.Root()).
			WithDetail("source", a.Root())
	}

	// Last point at which a publish can be abandoned.
	if err := ctx.Err(); err != nil {
		m.store.Abort(id)
		return "", cancelled(err, "publish")
	}

	manifest := &datastore.Manifest{
		ID:        id.String(),
		CreatedAt: m.now(),
		Source:    a.Root(),
		Files:     stats.Files,
		Dirs:      stats.Dirs,
		Links:     stats.Links,
		Size:      stats.Size,
		Digest:    stats.Digest,
	}
	if err := m.store.Commit(id, manifest); err != nil {
		m.store.Abort(id)
		return "", err
	}

	logger.Info().
		Int("files", stats.Files).
		Int64("size", stats.Size).
		Str("digest", stats.Digest).
		Msg("Release published")
	return id, nil
}

// floorID returns the newest id known to this process or present in the
// store. New ids must sort after it.
func (m *Manager) floorID() (types.ReleaseID, error) {
	floor := m.last
	ids, err := m.store.ReleaseIDs()
	if err != nil {
		return "", err
	}
	if len(ids) > 0 && (floor == "" || ids[0].Compare(floor) > 0) {
		floor = ids[0]
	}
	return floor, nil
}

func (m *Manager) candidateID(floor types.ReleaseID) types.ReleaseID {
	id := types.NewReleaseID(m.now(), 0)
	if floor != "" && id.Compare(floor) <= 0 {
		id = types.NewReleaseID(floor.Time(), floor.Seq()+1)
	}
	return id
}

func (m *Manager) plannedID() (types.ReleaseID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	floor, err := m.floorID()
	if err != nil {
		return "", err
	}
	return m.candidateID(floor), nil
}

// reserve allocates the next id and claims its staging directory. Other
// processes publishing into the same store are excluded by the staging
// mkdir; a taken id moves on to the next counter value.
func (m *Manager) reserve() (types.ReleaseID, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	floor, err := m.floorID()
	if err != nil {
		return "", "", err
	}
	id := m.candidateID(floor)

	for attempt := 0; ; attempt++ {
		staging, err := m.store.Reserve(id)
		if err == nil {
			m.last = id
			return id, staging, nil
		}
		if !stderrors.Is(err, fs.ErrExist) {
			return "", "", errors.Wrapf(err, errors.ErrStoreWrite, "failed to reserve release %s", id).
				WithDetail("release", id.String())
		}
		if attempt >= maxReserveAttempts {
			return "", "", errors.Newf(errors.ErrStoreWrite, "no free release id after %d attempts", attempt+1).
				WithDetail("release", id.String())
		}
		m.logger.Debug().Str("release", id.String()).Msg("Release id taken, trying next")
		id = types.NewReleaseID(id.Time(), id.Seq()+1)
	}
}
