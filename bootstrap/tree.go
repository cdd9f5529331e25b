package bootstrap

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyTree copies the directory tree at src into dst, verbatim: every file
// present is included, with no filtering, transformation, or validation.
// File modes are preserved; symlinks are recreated with their original
// targets.
//
// dst is created if it does not exist. An empty src is not an error: an
// empty tree still assembles, and the resulting environment fails later at
// the entrypoint stage instead.
//
// dst may live inside src (staging a build context next to the sources is
// the common case); the destination subtree is excluded from the copy so
// the walk never descends into its own output.
func CopyTree(src, dst string) error {
	src, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("bootstrap: resolving source tree %s: %w", src, err)
	}

	dst, err = filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("bootstrap: resolving destination %s: %w", dst, err)
	}

	if dst == src {
		return fmt.Errorf("bootstrap: destination %s is the source tree", dst)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("bootstrap: statting source tree %s: %w", src, err)
	}

	if !srcInfo.IsDir() {
		return fmt.Errorf("bootstrap: source tree %s is not a directory", src)
	}

	err = os.MkdirAll(dst, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("bootstrap: creating destination %s: %w", dst, err)
	}

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if p == dst {
			// Never copy the destination into itself.
			return fs.SkipDir
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return fmt.Errorf("bootstrap: relativizing %s: %w", p, err)
		}

		if rel == "." {
			return nil
		}

		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return copySymlink(p, target)
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("bootstrap: statting %s: %w", p, err)
			}

			err = os.MkdirAll(target, info.Mode().Perm())
			if err != nil {
				return fmt.Errorf("bootstrap: creating directory %s: %w", target, err)
			}

			return nil
		case d.Type().IsRegular():
			return copyFile(p, target)
		default:
			// Sockets, devices and the like cannot appear in an image
			// layer; skip them rather than failing the whole copy.
			return nil
		}
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("bootstrap: statting %s: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("bootstrap: opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("bootstrap: creating %s: %w", dst, err)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		_ = out.Close()

		return fmt.Errorf("bootstrap: copying %s: %w", src, err)
	}

	err = out.Close()
	if err != nil {
		return fmt.Errorf("bootstrap: closing %s: %w", dst, err)
	}

	return nil
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("bootstrap: reading symlink %s: %w", src, err)
	}

	err = os.Symlink(target, dst)
	if err != nil {
		return fmt.Errorf("bootstrap: creating symlink %s: %w", dst, err)
	}

	return nil
}
