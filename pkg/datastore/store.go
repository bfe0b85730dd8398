package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/filesystem"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/arthur-debert/releasekit/pkg/paths"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/rs/zerolog"
)

const (
	publishPrefix  = "publish-"
	linkPrefix     = "link-"
	manifestPrefix = "manifest-"
	trashPrefix    = "trash-"
)

var tmpCounter atomic.Uint64

// Store is the filesystem-backed release store.
type Store struct {
	fs     filesystem.FS
	paths  paths.Paths
	logger zerolog.Logger
}

// New creates a Store over fs using the locations in p.
func New(fs filesystem.FS, p paths.Paths) *Store {
	return &Store{
		fs:     fs,
		paths:  p,
		logger: logging.GetLogger("datastore"),
	}
}

// Paths returns the store locations.
func (s *Store) Paths() paths.Paths {
	return s.paths
}

// Init creates the store directories if they are missing.
func (s *Store) Init() error {
	for _, dir := range []string{s.paths.ReleasesDir(), s.paths.ManifestsDir(), s.paths.StagingDir()} {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrStoreWrite, "failed to create store directory %s", dir).
				WithDetail("path", dir)
		}
	}
	return nil
}

// ReleaseIDs returns the ids of all registered releases, newest first.
// Entries that are not directories or not named like release ids are
// ignored.
func (s *Store) ReleaseIDs() ([]types.ReleaseID, error) {
	entries, err := s.fs.ReadDir(s.paths.ReleasesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []types.ReleaseID{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrStoreRead, "failed to read releases directory").
			WithDetail("path", s.paths.ReleasesDir())
	}

	ids := make([]types.ReleaseID, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := types.ParseReleaseID(entry.Name())
		if err != nil {
			s.logger.Debug().Str("entry", entry.Name()).Msg("Ignoring foreign entry in releases directory")
			continue
		}
		ids = append(ids, id)
	}
	types.SortIDsNewestFirst(ids)
	return ids, nil
}

// Exists reports whether id is a registered release.
func (s *Store) Exists(id types.ReleaseID) (bool, error) {
	info, err := s.fs.Lstat(s.paths.ReleasePath(id.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrStoreRead, "failed to inspect release %s", id).
			WithDetail("release", id.String())
	}
	return info.IsDir(), nil
}

// Get returns the release id with its manifest data when available.
func (s *Store) Get(id types.ReleaseID) (types.Release, error) {
	if !types.IsReleaseID(id.String()) {
		return types.Release{}, errors.Newf(errors.ErrUnknownRelease, "%q is not a release id", id).
			WithDetail("release", id.String())
	}
	ok, err := s.Exists(id)
	if err != nil {
		return types.Release{}, err
	}
	if !ok {
		return types.Release{}, errors.Newf(errors.ErrUnknownRelease, "release %s does not exist", id).
			WithDetail("release", id.String())
	}

	rel := types.Release{
		ID:        id,
		CreatedAt: id.Time(),
		Path:      s.paths.ReleasePath(id.String()),
	}

	m, err := s.ReadManifest(id)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("release", id.String()).Msg("Ignoring unreadable manifest")
	case m != nil:
		m.apply(&rel)
	}
	return rel, nil
}

func (s *Store) stagingPath(name string) string {
	return filepath.Join(s.paths.StagingDir(), name)
}

func tempName(prefix, id string) string {
	return fmt.Sprintf("%s%s.%d.%d", prefix, id, os.Getpid(), tmpCounter.Add(1))
}
