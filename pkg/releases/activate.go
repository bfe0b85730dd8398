package releases

import (
	"context"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/arthur-debert/releasekit/pkg/types"
)

// Activate points the live pointer at id. Activating the live release is
// a no-op. If the swap fails the pointer keeps its previous value.
func (m *Manager) Activate(ctx context.Context, id types.ReleaseID) error {
	logger := m.logger.With().Str("operation", "activate").Str("release", id.String()).Logger()
	defer logging.LogOperationStart(logger)()

	if err := ctx.Err(); err != nil {
		return cancelled(err, "activate")
	}
	if err := m.requireRelease(id); err != nil {
		return err
	}

	live, ok, err := m.store.ReadLive()
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("Live pointer unreadable, replacing it")
	case ok && live == id:
		logger.Info().Msg("Release already live")
		return nil
	}

	if m.opts.DryRun {
		logger.Info().Str("previous", live.String()).Bool("dry_run", true).Msg("Would activate release")
		return nil
	}

	if err := m.store.SwapLive(id); err != nil {
		return err
	}
	logger.Info().Str("previous", live.String()).Msg("Release activated")
	return nil
}

// Rollback activates target, or when target is empty, the newest release
// older than the live one. The previous release is recomputed from the
// store on every call, so repeated rollbacks walk further back.
func (m *Manager) Rollback(ctx context.Context, target types.ReleaseID) (types.ReleaseID, error) {
	logger := m.logger.With().Str("operation", "rollback").Logger()
	defer logging.LogOperationStart(logger)()

	if target != "" {
		if err := m.Activate(ctx, target); err != nil {
			return "", err
		}
		return target, nil
	}

	prior, err := m.Previous(ctx)
	if err != nil {
		return "", err
	}
	if err := m.Activate(ctx, prior); err != nil {
		return "", err
	}
	return prior, nil
}

// Previous returns the newest release created before the live one.
func (m *Manager) Previous(ctx context.Context) (types.ReleaseID, error) {
	if err := ctx.Err(); err != nil {
		return "", cancelled(err, "rollback")
	}

	live, ok, err := m.store.ReadLive()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New(errors.ErrNoPriorRelease, "no release is live")
	}

	ids, err := m.store.ReleaseIDs()
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if id.Compare(live) < 0 {
			return id, nil
		}
	}
	return "", errors.Newf(errors.ErrNoPriorRelease, "no release older than %s", live).
		WithDetail("release", live.String())
}

func (m *Manager) requireRelease(id types.ReleaseID) error {
	if !types.IsReleaseID(id.String()) {
		return errors.Newf(errors.ErrUnknownRelease, "%q is not a release id", id).
			WithDetail("release", id.String())
	}
	ok, err := m.store.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Newf(errors.ErrUnknownRelease, "release %s does not exist", id).
			WithDetail("release", id.String())
	}
	return nil
}
