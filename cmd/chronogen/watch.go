package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long the schema directory must stay quiet before a
// change triggers a run.
const settle = 200 * time.Millisecond

// rewatch is how often a directory that could not be watched is tried
// again.
const rewatch = time.Second

// watch runs gen once, then again after every change of a schema file
// in dir, until ctx is done. A directory that cannot be watched is not
// fatal, as in a plain run: it is reported once and retried until it
// can be watched, which also triggers a run.
func watch(ctx context.Context, log *slog.Logger, dir string, gen func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	addErr := w.Add(dir)
	if err := gen(ctx); err != nil {
		return err
	}
	watching := addErr == nil
	if watching {
		log.Info("watching schema directory", "dir", dir)
	} else {
		log.Warn("cannot watch schema directory, retrying", "dir", dir, "error", addErr)
	}

	timer := time.NewTimer(settle)
	timer.Stop()
	retry := time.NewTicker(rewatch)
	defer retry.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if schemaEvent(ev) {
				log.Debug("schema changed", "file", ev.Name, "op", ev.Op.String())
				timer.Reset(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-retry.C:
			if watching {
				continue
			}
			if err := w.Add(dir); err != nil {
				log.Debug("schema directory still not watchable", "dir", dir, "error", err)
				continue
			}
			watching = true
			log.Info("watching schema directory", "dir", dir)
			timer.Reset(settle)
		case <-timer.C:
			if err := gen(ctx); err != nil {
				return err
			}
		}
	}
}

func schemaEvent(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".xml") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
