package types

import (
	"slices"
	"time"
)

// Release is a published, immutable build output in the release store.
type Release struct {
	ID        ReleaseID `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Path      string    `json:"path" yaml:"path"`

	// Manifest data; zero when the release has no manifest.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Files  int    `json:"files,omitempty" yaml:"files,omitempty"`
	Size   int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`

	// Live is set when the live pointer referenced this release at the
	// time it was read.
	Live bool `json:"live" yaml:"live"`
}

// SortNewestFirst orders releases by id, newest first.
func SortNewestFirst(releases []Release) {
	slices.SortFunc(releases, func(a, b Release) int {
		return b.ID.Compare(a.ID)
	})
}

// SortIDsNewestFirst orders ids newest first.
func SortIDsNewestFirst(ids []ReleaseID) {
	slices.SortFunc(ids, func(a, b ReleaseID) int {
		return b.Compare(a)
	})
}

// PruneResult reports what a prune did.
type PruneResult struct {
	Retain  int         `json:"retain" yaml:"retain"`
	Live    ReleaseID   `json:"live,omitempty" yaml:"live,omitempty"`
	Kept    []ReleaseID `json:"kept" yaml:"kept"`
	Deleted []ReleaseID `json:"deleted" yaml:"deleted"`
	Failed  []ReleaseID `json:"failed,omitempty" yaml:"failed,omitempty"`
	DryRun  bool        `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// DeletedCount returns the number of releases removed.
func (r PruneResult) DeletedCount() int {
	return len(r.Deleted)
}

// ActivationResult reports a live pointer change.
type ActivationResult struct {
	Release  ReleaseID `json:"release" yaml:"release"`
	Previous ReleaseID `json:"previous,omitempty" yaml:"previous,omitempty"`
	Changed  bool      `json:"changed" yaml:"changed"`
	DryRun   bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// PublishResult reports a publish, with the activation and prune that
// followed it when they were requested.
type PublishResult struct {
	Release    Release           `json:"release" yaml:"release"`
	Activation *ActivationResult `json:"activation,omitempty" yaml:"activation,omitempty"`
	Prune      *PruneResult      `json:"prune,omitempty" yaml:"prune,omitempty"`
	DryRun     bool              `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}
