package orchestrator

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher optionally re-runs DiscoverServices whenever src/ changes, so a
// newly dropped-in service directory is picked up without a process
// restart. This is the SPEC_FULL.md §4.H "optional fsnotify-based live
// re-discovery" addition; it is off by default, and cmd/pipeline does
// not start one.
type Watcher struct {
	watcher *fsnotify.Watcher
	srcRoot string
	logger  *zap.Logger
	onChange func([]string)
}

// NewWatcher starts watching srcRoot for directory changes. onChange is
// called with the freshly discovered service list whenever the tree
// changes.
func NewWatcher(srcRoot string, logger *zap.Logger, onChange func([]string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(srcRoot); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{watcher: fw, srcRoot: srcRoot, logger: logger, onChange: onChange}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			services, err := DiscoverServices(w.srcRoot)
			if err != nil {
				w.logger.Warn("live re-discovery failed", zap.Error(err))
				continue
			}
			w.onChange(services)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify watch error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
