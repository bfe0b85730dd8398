package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReleaseIDLayout is the time layout of the timestamp part of a release id.
const ReleaseIDLayout = "20060102150405"

// ReleaseID identifies a release. It is a UTC timestamp with second
// resolution, optionally followed by "-N" when several releases were
// published within the same second. Ordering is by timestamp, then N, so
// "20240101120000-10" sorts after "20240101120000-9".
type ReleaseID string

// NewReleaseID builds an id for t. seq 0 yields the bare timestamp.
func NewReleaseID(t time.Time, seq int) ReleaseID {
	base := t.UTC().Format(ReleaseIDLayout)
	if seq <= 0 {
		return ReleaseID(base)
	}
	return ReleaseID(fmt.Sprintf("%s-%d", base, seq))
}

// ParseReleaseID validates s and returns it as a ReleaseID.
func ParseReleaseID(s string) (ReleaseID, error) {
	if _, _, err := splitReleaseID(s); err != nil {
		return "", err
	}
	return ReleaseID(s), nil
}

// IsReleaseID reports whether s is a well-formed release id.
func IsReleaseID(s string) bool {
	_, _, err := splitReleaseID(s)
	return err == nil
}

func splitReleaseID(s string) (time.Time, int, error) {
	base, suffix, hasSuffix := strings.Cut(s, "-")
	if len(base) != len(ReleaseIDLayout) {
		return time.Time{}, 0, fmt.Errorf("invalid release id %q: timestamp must be %d digits", s, len(ReleaseIDLayout))
	}
	ts, err := time.ParseInLocation(ReleaseIDLayout, base, time.UTC)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid release id %q: %w", s, err)
	}
	if !hasSuffix {
		return ts, 0, nil
	}
	if suffix == "" || suffix[0] == '0' {
		return time.Time{}, 0, fmt.Errorf("invalid release id %q: bad sequence suffix", s)
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 1 {
		return time.Time{}, 0, fmt.Errorf("invalid release id %q: bad sequence suffix", s)
	}
	return ts, seq, nil
}

// Time returns the creation time encoded in the id, or the zero time for a
// malformed id.
func (id ReleaseID) Time() time.Time {
	ts, _, _ := splitReleaseID(string(id))
	return ts
}

// Seq returns the same-second disambiguation counter.
func (id ReleaseID) Seq() int {
	_, seq, _ := splitReleaseID(string(id))
	return seq
}

// Compare returns -1, 0 or +1 depending on whether id was created before,
// at the same time as, or after other.
func (id ReleaseID) Compare(other ReleaseID) int {
	t1, s1, err1 := splitReleaseID(string(id))
	t2, s2, err2 := splitReleaseID(string(other))
	if err1 != nil || err2 != nil {
		return strings.Compare(string(id), string(other))
	}
	if c := t1.Compare(t2); c != 0 {
		return c
	}
	switch {
	case s1 < s2:
		return -1
	case s1 > s2:
		return 1
	}
	return 0
}

func (id ReleaseID) String() string { return string(id) }
