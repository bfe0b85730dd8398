package artifact

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/filesystem"
	"github.com/arthur-debert/releasekit/pkg/internal/hashutil"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/spf13/afero"
)

// Artifact is a complete static output tree produced by a build.
type Artifact struct {
	fs   afero.Fs
	root string
}

// Stats describes what was copied out of an artifact.
type Stats struct {
	Files  int
	Dirs   int
	Links  int
	Size   int64
	Digest string
}

var (
	errFoundFile   = stderrors.New("found regular file")
	errSizeChanged = stderrors.New("file changed size while copying")
)

// Open returns the artifact rooted at path on the local disk.
func Open(path string) (*Artifact, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to resolve artifact path %s", path)
	}
	// The walk does not follow symlinks, so resolve a linked root here.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &Artifact{fs: afero.NewOsFs(), root: abs}, nil
}

// FromFs returns the artifact rooted at root inside fsys.
func FromFs(fsys afero.Fs, root string) *Artifact {
	return &Artifact{fs: fsys, root: root}
}

// Root returns the artifact location.
func (a *Artifact) Root() string {
	return a.root
}

// Validate checks the tree exists, is a directory and holds at least one
// regular file.
func (a *Artifact) Validate() error {
	info, err := a.fs.Stat(a.root)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrIncompleteArtifact, "build output %s does not exist", a.root).
				WithDetail("path", a.root)
		}
		return errors.Wrapf(err, errors.ErrIncompleteArtifact, "cannot inspect build output %s", a.root).
			WithDetail("path", a.root)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrIncompleteArtifact, "build output %s is not a directory", a.root).
			WithDetail("path", a.root)
	}

	err = afero.Walk(a.fs, a.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			return errFoundFile
		}
		return nil
	})
	switch {
	case stderrors.Is(err, errFoundFile):
		return nil
	case err != nil:
		return errors.Wrapf(err, errors.ErrIncompleteArtifact, "cannot read build output %s", a.root).
			WithDetail("path", a.root)
	}
	return errors.Newf(errors.ErrIncompleteArtifact, "build output %s is empty", a.root).
		WithDetail("path", a.root)
}

// CopyTo mirrors the artifact into dstRoot on dst, which must already
// exist and be empty. Entries whose base name matches one of the exclude
// globs are skipped along with everything below them. The walk checks ctx
// between entries.
func (a *Artifact) CopyTo(ctx context.Context, dst filesystem.FS, dstRoot string, exclude []string) (Stats, error) {
	logger := logging.GetLogger("artifact")
	hasher := hashutil.NewTreeHasher()
	var stats Stats

	err := afero.Walk(a.fs, a.root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if excluded(info.Name(), exclude) {
			logger.Trace().Str("path", rel).Msg("Excluded from release")
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dstRoot, rel)
		rel = filepath.ToSlash(rel)

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			reader, ok := a.fs.(afero.LinkReader)
			if !ok {
				return &fs.PathError{Op: "readlink", Path: path, Err: afero.ErrNoReadlink}
			}
			link, err := reader.ReadlinkIfPossible(path)
			if err != nil {
				return err
			}
			if err := dst.Symlink(link, target); err != nil {
				return err
			}
			hasher.AddSymlink(rel, link)
			stats.Links++

		case info.IsDir():
			// Parents are created before children, so a vanished dstRoot
			// fails here instead of being rebuilt.
			if err := dst.Mkdir(target, info.Mode().Perm()|0700); err != nil {
				return err
			}
			hasher.AddDir(rel)
			stats.Dirs++

		case info.Mode().IsRegular():
			n, err := a.copyFile(path, dst, target, info, hasher.FileWriter(rel, info.Size()))
			if err != nil {
				return err
			}
			stats.Files++
			stats.Size += n

		default:
			logger.Debug().Str("path", rel).Str("mode", info.Mode().String()).Msg("Skipping special file")
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	stats.Digest = hasher.Sum()
	return stats, nil
}

// copyFile streams one regular file into target and sum. The file must
// not change size while it is copied.
func (a *Artifact) copyFile(path string, dst filesystem.FS, target string, info fs.FileInfo, sum io.Writer) (int64, error) {
	in, err := a.fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := dst.Create(target, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(io.MultiWriter(out, sum), in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, err
	}
	if n != info.Size() {
		return n, &fs.PathError{Op: "copy", Path: path, Err: errSizeChanged}
	}
	return n, nil
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
