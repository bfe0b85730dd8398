package releases

import (
	"context"
	"time"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/arthur-debert/releasekit/pkg/types"
	"go.uber.org/multierr"
)

// Prune keeps the retain newest releases and deletes the rest, except the
// live release which is never deleted. The live pointer is read once up
// front and again before every deletion. A failed deletion does not stop
// the others; failures are returned together, each coded PRUNE.
func (m *Manager) Prune(ctx context.Context, retain int) (types.PruneResult, error) {
	logger := m.logger.With().Str("operation", "prune").Int("retain", retain).Logger()
	defer logging.LogOperationStart(logger)()

	result := types.PruneResult{
		Retain:  retain,
		Kept:    []types.ReleaseID{},
		Deleted: []types.ReleaseID{},
		DryRun:  m.opts.DryRun,
	}

	if retain < 1 {
		return result, errors.Newf(errors.ErrInvalidInput, "retain must be at least 1, got %d", retain).
			WithDetail("retain", retain)
	}
	if err := ctx.Err(); err != nil {
		return result, cancelled(err, "prune")
	}

	ids, err := m.store.ReleaseIDs()
	if err != nil {
		return result, err
	}
	snapshot, hasLive, err := m.store.ReadLive()
	if err != nil {
		return result, err
	}
	if hasLive {
		result.Live = snapshot
	}

	if len(ids) <= retain {
		result.Kept = append(result.Kept, ids...)
	} else {
		result.Kept = append(result.Kept, ids[:retain]...)
	}

	var failures error
	for i := retain; i < len(ids); i++ {
		id := ids[i]
		if err := ctx.Err(); err != nil {
			failures = multierr.Append(failures, cancelled(err, "prune"))
			result.Kept = append(result.Kept, ids[i:]...)
			break
		}

		if hasLive && id == snapshot {
			logger.Debug().Str("release", id.String()).Msg("Keeping live release")
			result.Kept = append(result.Kept, id)
			continue
		}

		// The pointer may have moved since the snapshot.
		live, ok, err := m.store.ReadLive()
		if err != nil {
			failures = multierr.Append(failures, errors.Wrapf(err, errors.ErrPrune, "cannot confirm %s is not live", id).
				WithDetail("release", id.String()))
			result.Failed = append(result.Failed, id)
			continue
		}
		if ok && live == id {
			logger.Info().Str("release", id.String()).Msg("Release became live during prune, keeping it")
			result.Kept = append(result.Kept, id)
			continue
		}

		if m.opts.DryRun {
			logger.Info().Str("release", id.String()).Bool("dry_run", true).Msg("Would delete release")
			result.Deleted = append(result.Deleted, id)
			continue
		}

		if err := m.store.Delete(id); err != nil {
			logger.Warn().Err(err).Str("release", id.String()).Msg("Failed to delete release")
			failures = multierr.Append(failures, errors.Wrapf(err, errors.ErrPrune, "failed to delete release %s", id).
				WithDetail("release", id.String()))
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Deleted = append(result.Deleted, id)
	}

	if !m.opts.DryRun {
		if _, err := m.store.CleanStaging(m.opts.StagingTTL, time.Now()); err != nil {
			logger.Warn().Err(err).Msg("Failed to clean staging area")
		}
	}

	logger.Info().
		Int("deleted", result.DeletedCount()).
		Int("kept", len(result.Kept)).
		Int("failed", len(result.Failed)).
		Msg("Prune finished")
	return result, failures
}
