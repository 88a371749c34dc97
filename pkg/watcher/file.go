package watcher

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileWatcher signals when any of the given files is written, e.g. a
// backlight brightness attribute.
type FileWatcher struct {
	supervisor
	paths []string
}

var _ Watcher = &FileWatcher{}

func NewFileWatcher(name string, paths []string, backoff time.Duration) *FileWatcher {
	return &FileWatcher{
		supervisor: supervisor{name: name, backoff: backoff},
		paths:      paths,
	}
}

func (w *FileWatcher) Run(ctx context.Context, signals chan<- struct{}) {
	w.onListening = func(_ context.Context, attempt int) {
		if attempt > 0 {
			Notify(signals)
		}
	}
	w.run(ctx, func(ctx context.Context, ready func()) error {
		return w.session(ctx, ready, signals)
	})
}

func (w *FileWatcher) session(ctx context.Context, ready func(), signals chan<- struct{}) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer fsw.Close()

	for _, p := range w.paths {
		if err := fsw.Add(p); err != nil {
			return pkgerrors.Wrapf(err, "failed to watch %s", p)
		}
	}
	ready()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return ErrDisconnected
			}
			logrus.WithFields(logrus.Fields{
				"watcher": w.name,
				"file":    ev.Name,
				"op":      ev.Op.String(),
			}).Trace("file event")
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				Notify(signals)
			}
			// The watch is gone with the file. Start over.
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				Notify(signals)
				return pkgerrors.Wrapf(ErrDisconnected, "%s was removed", ev.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return ErrDisconnected
			}
			return pkgerrors.Wrap(err, "fsnotify")
		}
	}
}
