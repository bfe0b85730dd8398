package datastore

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/types"
)

// ReadLive returns the release the live pointer references. ok is false
// when no pointer exists yet. The referenced release is not checked for
// existence.
func (s *Store) ReadLive() (id types.ReleaseID, ok bool, err error) {
	link := s.paths.CurrentLink()
	target, err := s.fs.Readlink(link)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, errors.ErrStoreRead, "failed to read live pointer").
			WithDetail("path", link)
	}

	want := filepath.Dir(s.paths.CurrentTarget("x"))
	if filepath.IsAbs(target) {
		want = s.paths.ReleasesDir()
	}
	if filepath.Dir(filepath.Clean(target)) != want {
		return "", false, errors.Newf(errors.ErrStoreRead, "live pointer references %s outside the release store", target).
			WithDetail("path", link)
	}

	id, err = types.ParseReleaseID(filepath.Base(target))
	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrStoreRead, "live pointer does not reference a release").
			WithDetail("path", link)
	}
	return id, true, nil
}

// SwapLive points the live pointer at id. The new symlink is created under
// a temporary name and renamed over the pointer, so readers observe either
// the old or the new target. On failure the pointer is left untouched.
func (s *Store) SwapLive(id types.ReleaseID) error {
	if err := s.fs.MkdirAll(s.paths.StagingDir(), 0755); err != nil {
		return errors.Wrap(err, errors.ErrPointerSwap, "failed to prepare staging directory").
			WithDetail("release", id.String())
	}

	tmp := s.stagingPath(tempName(linkPrefix, id.String()))
	if err := s.fs.Symlink(s.paths.CurrentTarget(id.String()), tmp); err != nil {
		return errors.Wrapf(err, errors.ErrPointerSwap, "failed to create pointer for %s", id).
			WithDetail("release", id.String())
	}

	if err := s.fs.Rename(tmp, s.paths.CurrentLink()); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrPointerSwap, "failed to swap live pointer to %s", id).
			WithDetail("release", id.String()).
			WithDetail("path", s.paths.CurrentLink())
	}

	s.logger.Info().Str("release", id.String()).Msg("Live pointer swapped")
	return nil
}
