package filewatch

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Loader interface {
	Load(path string) error
}

// Watcher reloads a file into a Loader whenever it is written.
type Watcher struct {
	stop chan struct{}
	done chan error
}

// LoadAndWatch loads path once and then keeps reloading it on writes until
// Close is called. The parent directory is watched, so editors that save by
// replacing the file are picked up too. Reload errors are logged and the
// previous contents stay in effect.
func LoadAndWatch(path string, loader Loader, log logrus.FieldLogger) (*Watcher, error) {
	path = filepath.Clean(path)
	if err := loader.Load(path); err != nil {
		return nil, errors.Wrap(err, "failed to load file")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, errors.Wrap(err, "failed to add directory to watcher")
	}
	log = log.WithField("path", path)

	w := &Watcher{stop: make(chan struct{}), done: make(chan error, 1)}
	go func() {
		events, errs := fw.Events, fw.Errors
		for {
			select {
			case event, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := loader.Load(path); err != nil {
					log.WithError(err).Warn("failed to reload file")
					continue
				}
				log.Info("reloaded file")
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				log.WithError(err).Warn("file watch error")
			case <-w.stop:
				w.done <- fw.Close()
				return
			}
		}
	}()
	return w, nil
}

func (w *Watcher) Close() error {
	close(w.stop)
	return <-w.done
}
