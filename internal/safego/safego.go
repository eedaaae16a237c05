// Package safego launches background goroutines that cannot take the process
// down. Fire-and-forget work (jobs, rate limiter cleanup) goes through Go so
// an unrecovered panic is logged instead of silently killing the goroutine or
// crashing the server.
package safego

import "log/slog"

// Go runs fn in a new goroutine, recovering and logging any panic.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
