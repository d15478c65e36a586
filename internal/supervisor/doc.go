// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package supervisor provides process supervision for killwatch using suture v4.

# Overview

Services are organized into two layers:

	RootSupervisor ("killwatch")
	├── WatchSupervisor ("watch-layer")
	│   └── WatcherService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (if http.enabled)

A panicking or failing watcher is restarted with exponential backoff while
the status server keeps answering, so a stalled watcher shows up in
/api/v1/status and /metrics instead of taking the process down.

# Usage

	logger := logging.NewSlogLogger(logging.Component("supervisor"))
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddWatchService(services.NewWatcherService(watcher))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)

# Event Logging

Supervisor events (service failures, restarts, backoff) go through
sutureslog to the slog bridge of the zerolog logger.

# See Also

  - internal/supervisor/services: suture.Service wrappers
  - github.com/thejerf/suture/v4: underlying supervision library
*/
package supervisor
