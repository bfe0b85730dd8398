package datastore

import (
	"os"
	"time"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/pelletier/go-toml/v2"
)

// Manifest is the metadata recorded next to a release.
type Manifest struct {
	ID        string    `toml:"id"`
	CreatedAt time.Time `toml:"created_at"`
	Source    string    `toml:"source"`
	Files     int       `toml:"files"`
	Dirs      int       `toml:"dirs"`
	Links     int       `toml:"links"`
	Size      int64     `toml:"size"`
	Digest    string    `toml:"digest"`
}

func (m *Manifest) apply(rel *types.Release) {
	if !m.CreatedAt.IsZero() {
		rel.CreatedAt = m.CreatedAt
	}
	rel.Source = m.Source
	rel.Files = m.Files
	rel.Size = m.Size
	rel.Digest = m.Digest
}

// ReadManifest loads the manifest for id. A missing manifest is not an
// error and yields nil.
func (s *Store) ReadManifest(id types.ReleaseID) (*Manifest, error) {
	data, err := s.fs.ReadFile(s.paths.ManifestPath(id.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrStoreRead, "failed to read manifest for %s", id).
			WithDetail("release", id.String())
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrStoreRead, "failed to parse manifest for %s", id).
			WithDetail("release", id.String())
	}
	return &m, nil
}

// writeManifest writes the manifest through a staged temp file so a reader
// never sees a truncated manifest.
func (s *Store) writeManifest(id types.ReleaseID, m *Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return err
	}

	tmp := s.stagingPath(tempName(manifestPrefix, id.String()))
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, s.paths.ManifestPath(id.String())); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) removeManifest(id types.ReleaseID) error {
	err := s.fs.Remove(s.paths.ManifestPath(id.String()))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
