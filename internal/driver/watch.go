package driver

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch re-converts whichever *.haml file under path (or path itself, when
// it is a single file) is written or created, calling onResult after each
// conversion. Nothing is converted until the first such event. It blocks
// until stop is closed or the watcher's channels close; watcher errors are
// logged and watching continues.
func Watch(path string, opts Options, onResult func(FileResult), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer watcher.Close()

	if err := addRecursive(watcher, path); err != nil {
		return err
	}

	// A single file is watched through its parent directory, so events for
	// the other files in that directory are ignored.
	singleFile := ""
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		singleFile = filepath.Clean(path)
	}

	for {
		select {
		case <-stop:
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".haml") {
				continue
			}
			if singleFile != "" && filepath.Clean(ev.Name) != singleFile {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			onResult(ConvertFile(ev.Name, opts))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "err", err)
		}
	}
}

// addRecursive registers root's directory tree with watcher. When root is a
// single file (the common `haml2erb convert --watch file.haml` case),
// fsnotify still needs a watched directory to see writes to it, so its
// parent directory is added instead.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "stat %s", root)
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
