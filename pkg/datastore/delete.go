package datastore

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/types"
	"go.uber.org/multierr"
)

// Delete removes release id. The release leaves the store through a rename
// into the staging area before its content is removed, so listings never
// show a half-deleted release.
func (s *Store) Delete(id types.ReleaseID) error {
	if err := s.fs.MkdirAll(s.paths.StagingDir(), 0755); err != nil {
		return errors.Wrap(err, errors.ErrStoreWrite, "failed to prepare staging directory")
	}

	trash := s.stagingPath(tempName(trashPrefix, id.String()))
	if err := s.fs.Rename(s.paths.ReleasePath(id.String()), trash); err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrUnknownRelease, "release %s does not exist", id).
				WithDetail("release", id.String())
		}
		return errors.Wrapf(err, errors.ErrStoreWrite, "failed to unlink release %s", id).
			WithDetail("release", id.String())
	}

	var result error
	if err := s.removeManifest(id); err != nil {
		result = multierr.Append(result, err)
	}
	if err := s.fs.RemoveAll(trash); err != nil {
		result = multierr.Append(result, err)
	}
	if result != nil {
		return errors.Wrapf(result, errors.ErrStoreWrite, "release %s unlinked but cleanup failed", id).
			WithDetail("release", id.String())
	}

	s.logger.Info().Str("release", id.String()).Msg("Release deleted")
	return nil
}

// CleanStaging removes staging entries last modified before now-ttl. These
// are leftovers of publishes, swaps or deletions that were interrupted.
// Publishes still running in this process are always kept.
func (s *Store) CleanStaging(ttl time.Duration, now time.Time) ([]string, error) {
	entries, err := s.fs.ReadDir(s.paths.StagingDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrStoreRead, "failed to read staging directory")
	}

	cutoff := now.Add(-ttl)
	var removed []string
	var result error
	for _, entry := range entries {
		if !isStagingEntry(entry.Name()) {
			continue
		}
		path := s.stagingPath(entry.Name())
		info, err := s.fs.Lstat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				result = multierr.Append(result, err)
			}
			continue
		}
		if strings.HasPrefix(entry.Name(), publishPrefix) {
			if _, active := publishing.Load(filepath.Clean(path)); active {
				continue
			}
			// A directory's mtime only moves with its direct children, so
			// a publish from another process is judged by its newest entry.
			info = s.newestEntry(path, info)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := s.fs.RemoveAll(path); err != nil {
			result = multierr.Append(result, err)
			continue
		}
		removed = append(removed, entry.Name())
	}

	if len(removed) > 0 {
		s.logger.Info().Strs("entries", removed).Msg("Cleaned stale staging entries")
	}
	if result != nil {
		return removed, errors.Wrap(result, errors.ErrStoreWrite, "failed to clean staging directory")
	}
	return removed, nil
}

// newestEntry returns the most recently modified entry at or below path.
// Entries that cannot be read are ignored.
func (s *Store) newestEntry(path string, info fs.FileInfo) fs.FileInfo {
	newest := info
	if !info.IsDir() {
		return newest
	}
	entries, err := s.fs.ReadDir(path)
	if err != nil {
		return newest
	}
	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		childInfo, err := s.fs.Lstat(child)
		if err != nil {
			continue
		}
		if candidate := s.newestEntry(child, childInfo); candidate.ModTime().After(newest.ModTime()) {
			newest = candidate
		}
	}
	return newest
}

func isStagingEntry(name string) bool {
	for _, prefix := range []string{publishPrefix, linkPrefix, manifestPrefix, trashPrefix} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
