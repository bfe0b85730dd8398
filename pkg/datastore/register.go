package datastore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/types"
)

// publishing holds the staging directories of publishes in progress in
// this process. CleanStaging never removes them, whatever their age.
var publishing sync.Map

// Reserve claims id for a new release and returns the staging directory
// the content must be written to. It fails with an error matching
// fs.ErrExist when id is already taken by a registered release or by
// another publish in progress, in this process or any other.
func (s *Store) Reserve(id types.ReleaseID) (string, error) {
	staging := s.stagingPath(publishPrefix + id.String())
	if err := s.fs.Mkdir(staging, 0755); err != nil {
		return "", err
	}

	// A publish that committed id just before our mkdir has already moved
	// its staging directory into releases/.
	taken, err := s.Exists(id)
	if err != nil || taken {
		_ = s.fs.RemoveAll(staging)
		if err != nil {
			return "", err
		}
		return "", &fs.PathError{Op: "reserve", Path: s.paths.ReleasePath(id.String()), Err: fs.ErrExist}
	}

	publishing.Store(filepath.Clean(staging), struct{}{})
	s.logger.Debug().Str("release", id.String()).Str("staging", staging).Msg("Reserved release id")
	return staging, nil
}

// Commit makes a reserved release visible. The manifest, when given, is
// checked against the staged tree and written first; the release then
// appears through a single rename of its staging directory. On failure
// nothing new is left in releases/.
func (s *Store) Commit(id types.ReleaseID, m *Manifest) error {
	staging := s.stagingPath(publishPrefix + id.String())
	target := s.paths.ReleasePath(id.String())

	if m != nil {
		if err := s.verifyStaged(staging, m); err != nil {
			return errors.Wrapf(err, errors.ErrStoreWrite, "staged release %s is incomplete", id).
				WithDetail("release", id.String()).
				WithDetail("path", staging)
		}
		if err := s.writeManifest(id, m); err != nil {
			return errors.Wrapf(err, errors.ErrStoreWrite, "failed to write manifest for %s", id).
				WithDetail("release", id.String())
		}
	}

	if err := s.fs.Rename(staging, target); err != nil {
		if taken, _ := s.Exists(id); !taken {
			_ = s.removeManifest(id)
		}
		return errors.Wrapf(err, errors.ErrStoreWrite, "failed to register release %s", id).
			WithDetail("release", id.String()).
			WithDetail("path", target)
	}

	publishing.Delete(filepath.Clean(staging))
	s.logger.Info().Str("release", id.String()).Str("path", target).Msg("Release registered")
	return nil
}

// Abort discards a reserved, uncommitted release.
func (s *Store) Abort(id types.ReleaseID) {
	staging := s.stagingPath(publishPrefix + id.String())
	defer publishing.Delete(filepath.Clean(staging))
	if err := s.fs.RemoveAll(staging); err != nil {
		s.logger.Warn().Err(err).Str("staging", staging).Msg("Failed to clean aborted publish")
	}
}

// treeCounts tallies a directory tree the way a manifest records it. The
// root itself is not counted.
type treeCounts struct {
	files, dirs, links int
	size               int64
}

func (s *Store) countTree(dir string, c *treeCounts) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := s.fs.Lstat(path)
		if err != nil {
			return err
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			c.links++
		case info.IsDir():
			c.dirs++
			if err := s.countTree(path, c); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			c.files++
			c.size += info.Size()
		}
	}
	return nil
}

// verifyStaged fails when the staged tree does not hold what m records,
// as when part of it was removed while it was being written.
func (s *Store) verifyStaged(staging string, m *Manifest) error {
	var got treeCounts
	if err := s.countTree(staging, &got); err != nil {
		return err
	}
	want := treeCounts{files: m.Files, dirs: m.Dirs, links: m.Links, size: m.Size}
	if got != want {
		return fmt.Errorf("found %d files, %d dirs, %d links, %d bytes; expected %d files, %d dirs, %d links, %d bytes",
			got.files, got.dirs, got.links, got.size, want.files, want.dirs, want.links, want.size)
	}
	return nil
}
