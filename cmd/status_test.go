package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adlens/spend-cli/internal/passlog"
)

func TestFormatEntry(t *testing.T) {
	started := time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC)
	completed := started.Add(90 * time.Second)

	line := formatEntry(passlog.Entry{
		Pass:        "rebuild",
		Status:      "complete",
		StartedAt:   started,
		CompletedAt: &completed,
		Stats:       map[string]any{"campaigns": 12},
	})

	assert.Contains(t, line, "2026-08-20 03:00:00")
	assert.Contains(t, line, "rebuild")
	assert.Contains(t, line, "all")
	assert.Contains(t, line, "1m30s")
	assert.Contains(t, line, "campaigns")
}

func TestFormatEntry_RunningAndFailed(t *testing.T) {
	running := formatEntry(passlog.Entry{
		Pass:      "wash",
		Scope:     "3,9",
		Status:    "running",
		StartedAt: time.Now(),
	})
	assert.Contains(t, running, "3,9")
	assert.Contains(t, running, "-")

	failed := formatEntry(passlog.Entry{
		Pass:      "fuse",
		Status:    "failed",
		StartedAt: time.Now(),
		Error:     "store unavailable",
	})
	assert.Contains(t, failed, "store unavailable")
}
