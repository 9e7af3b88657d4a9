package filetracker

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/lithiumaddons/core/errs"
)

// Watch starts an fsnotify watch on the tracker's directory, sending a
// Diff on the returned channel after each write, create, remove or rename
// event, invoking Scan and Compare internally. The returned stop
// function closes the underlying watcher.
func (t *Tracker) Watch(ctx context.Context) (<-chan Diff, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &errs.IoError{Op: "watch", Path: t.Directory, Err: err}
	}
	if err := watcher.Add(t.Directory); err != nil {
		watcher.Close()
		return nil, nil, &errs.IoError{Op: "watch", Path: t.Directory, Err: err}
	}

	diffs := make(chan Diff, 1)
	go func() {
		defer close(diffs)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := t.Scan(ctx); err != nil {
					continue
				}
				diffs <- t.Compare()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return diffs, func() { watcher.Close() }, nil
}
