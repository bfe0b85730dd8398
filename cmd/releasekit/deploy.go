package releasekit

import (
	"context"

	"github.com/arthur-debert/releasekit/pkg/artifact"
	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/types"
)

// deployOptions selects the steps that follow a publish.
type deployOptions struct {
	Activate bool
	Prune    bool
	Retain   int
}

// deploy publishes dir and then runs the requested steps in order. The
// result covers every step that ran, including the one that failed.
func (a *app) deploy(ctx context.Context, dir string, opts deployOptions) (types.PublishResult, error) {
	res := types.PublishResult{DryRun: a.manager.DryRun()}

	art, err := artifact.Open(dir)
	if err != nil {
		return res, err
	}
	previous := a.liveID(ctx)

	id, err := a.manager.Publish(ctx, art)
	if err != nil {
		return res, err
	}

	if res.DryRun {
		// Nothing was stored; report the planned release.
		res.Release = types.Release{ID: id, Source: art.Root()}
	} else {
		rel, err := a.manager.Get(ctx, id)
		if err != nil {
			return res, err
		}
		res.Release = rel
	}

	if opts.Activate {
		// A planned release does not exist yet, so a dry run cannot go
		// through Activate.
		if !res.DryRun {
			if err := a.manager.Activate(ctx, id); err != nil {
				return res, err
			}
			res.Release.Live = true
		}
		res.Activation = &types.ActivationResult{
			Release:  id,
			Previous: previous,
			Changed:  previous != id,
			DryRun:   res.DryRun,
		}
	}

	if opts.Prune {
		pruned, err := a.manager.Prune(ctx, opts.Retain)
		if err == nil || errors.IsErrorCode(err, errors.ErrPrune) {
			res.Prune = &pruned
		}
		if err != nil {
			return res, err
		}
	}
	return res, nil
}
