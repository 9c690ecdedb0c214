// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package safego_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/storehub/internal/platform/safego"
)

func TestRun_RecoversPanic(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	assert.NotPanics(t, func() {
		safego.Run(logger, "explode", func() { panic("boom") })
	})
	assert.Contains(t, buffer.String(), "background_task_panic_recovered")
	assert.Contains(t, buffer.String(), "explode")
}

func TestGo_RunsInBackground(t *testing.T) {
	done := make(chan struct{})
	safego.Go(nil, "signal", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background task never ran")
	}
}
