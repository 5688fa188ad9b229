package launcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/OutragedMetro/manjaro-hello/internal/locales"
	"github.com/OutragedMetro/manjaro-hello/internal/project"
	"github.com/OutragedMetro/manjaro-hello/internal/system"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/ubuntu/decorate"
)

// debounceDelay is how long the watcher waits after the last translation
// change before rebuilding the catalogs. Editors tend to fire several events
// per save.
const debounceDelay = 500 * time.Millisecond

// WatchLocales rebuilds the compiled catalogs whenever a translation source
// under the po directory changes. It returns a stop function releasing the
// watch. Rebuild failures are logged and do not end the watch: a broken po
// file under edition is business as usual.
func WatchLocales(ctx context.Context, sys system.System, l project.Layout) (stop func(), err error) {
	defer decorate.OnError(&err, i18n.G("could not watch translations in %q"), l.LocaleDir)

	if err := l.Validate(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(l.LocaleDir); err != nil {
		_ = w.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		watchLoop(ctx, w, sys, l)
	}()

	log.Infof("Watching %s for translation changes", l.LocaleDir)

	return func() {
		cancel()
		_ = w.Close()
		<-done
	}, nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, sys system.System, l project.Layout) {
	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !isTranslationChange(ev) {
				continue
			}
			log.Debugf("Translation change detected: %s", ev)
			debounce.Reset(debounceDelay)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warningf("Translation watch error: %v", err)

		case <-debounce.C:
			compiled, err := locales.GenerateMo(ctx, sys, l)
			if err != nil {
				log.Warningf("Could not rebuild the catalogs: %v", err)
				continue
			}
			log.Infof("Rebuilt %d catalog(s)", len(compiled))
		}
	}
}

// isTranslationChange reports whether the event affects a po file in a way
// that warrants a rebuild.
func isTranslationChange(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != ".po" {
		return false
	}
	return ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
}
