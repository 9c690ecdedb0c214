// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package safego provides a panic-recovering goroutine launcher for background work.
package safego

import (
	"log/slog"
	"runtime"
)

// Go launches fn in a new goroutine. A panic inside fn is recovered and logged
// through logger instead of crashing the process.
func Go(logger *slog.Logger, name string, fn func()) {
	go Run(logger, name, fn)
}

// Run executes fn on the calling goroutine with the same recovery as [Go].
func Run(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			stackTrace := make([]byte, 2048)
			length := runtime.Stack(stackTrace, false)

			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("background_task_panic_recovered",
				slog.String("task", name),
				slog.Any("panic", recovered),
				slog.String("stack", string(stackTrace[:length])),
			)
		}
	}()
	fn()
}
