// Package scan discovers candidate media files under a root path.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"subfetch/internal/media"
)

// ErrRootNotFound reports a root path that does not exist.
var ErrRootNotFound = errors.New("root path does not exist")

// Lister enumerates files under a root. Traversal is breadth-first over an
// explicit work list; directories below the root are expanded only when
// Recursive is set.
type Lister struct {
	Fs        afero.Fs
	Recursive bool
	// OnError receives directories that could not be read below the root.
	// Nil drops them silently.
	OnError func(path string, err error)
}

// NewLister returns a lister over the OS filesystem.
func NewLister(recursive bool) *Lister {
	return &Lister{Fs: afero.NewOsFs(), Recursive: recursive}
}

// List returns the files under root in discovery order. A root that is a
// regular file yields just that file.
func (l *Lister) List(root string) ([]media.File, error) {
	var files []media.File
	err := l.walk(root, func(path string, isDir bool) {
		if !isDir {
			files = append(files, media.NewFile(path))
		}
	})
	return files, err
}

// Dirs returns root and, when recursive, every directory below it.
func (l *Lister) Dirs(root string) ([]string, error) {
	info, err := l.stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	dirs := []string{filepath.Clean(root)}
	err = l.walk(root, func(path string, isDir bool) {
		if isDir {
			dirs = append(dirs, path)
		}
	})
	return dirs, err
}

func (l *Lister) walk(root string, visit func(path string, isDir bool)) error {
	root = filepath.Clean(root)
	info, err := l.stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		visit(root, false)
		return nil
	}

	queue, err := l.children(root)
	if err != nil {
		return fmt.Errorf("list %s: %w", root, err)
	}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if !next.dir {
			visit(next.path, false)
			continue
		}
		if !l.Recursive {
			continue
		}
		visit(next.path, true)
		children, err := l.children(next.path)
		if err != nil {
			if l.OnError != nil {
				l.OnError(next.path, err)
			}
			continue
		}
		queue = append(queue, children...)
	}
	return nil
}

type entry struct {
	path string
	dir  bool
}

func (l *Lister) children(dir string) ([]entry, error) {
	infos, err := afero.ReadDir(l.fs(), dir)
	if err != nil {
		return nil, err
	}
	out := make([]entry, 0, len(infos))
	for _, info := range infos {
		out = append(out, entry{path: filepath.Join(dir, info.Name()), dir: info.IsDir()})
	}
	return out, nil
}

func (l *Lister) stat(path string) (os.FileInfo, error) {
	info, err := l.fs().Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}

func (l *Lister) fs() afero.Fs {
	if l.Fs == nil {
		return afero.NewOsFs()
	}
	return l.Fs
}
