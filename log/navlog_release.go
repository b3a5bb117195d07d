//go:build !navlog

// log/navlog_release.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import "time"

// InitNavLog is a no-op in release builds
func InitNavLog(enabled bool, categories string, flight string) {}

// NavLog is a no-op in release builds
func NavLog(flight string, simTime time.Time, category string, format string, args ...interface{}) {
}
