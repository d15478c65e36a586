// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
)

// Watcher is the run loop of detection.Watcher.
type Watcher interface {
	// RunWithContext runs watch cycles until ctx is canceled.
	RunWithContext(ctx context.Context) error
}

// WatcherService runs the kill-rate watcher under suture. A watcher that
// returns an error or panics is restarted by the supervisor.
//
//	watcher := detection.NewWatcher(cfg, source, source, rates, whitelist, dispatcher, logger)
//	tree.AddWatchService(services.NewWatcherService(watcher))
type WatcherService struct {
	watcher Watcher
	name    string
}

// NewWatcherService wraps watcher.
func NewWatcherService(watcher Watcher) *WatcherService {
	return &WatcherService{
		watcher: watcher,
		name:    "killrate-watcher",
	}
}

// Serve implements suture.Service. It returns ctx.Err() on shutdown.
func (w *WatcherService) Serve(ctx context.Context) error {
	return w.watcher.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture's event log.
func (w *WatcherService) String() string {
	return w.name
}
