//go:build navlog

// log/navlog_debug.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"strings"
	"time"
)

var (
	navlogEnabled    bool
	navlogCategories map[string]bool
	navlogFlight     string // filter to only log this flight (empty = log all)
)

// InitNavLog initializes VNAV trace logging
func InitNavLog(enabled bool, categories string, flight string) {
	navlogEnabled = enabled
	navlogCategories = make(map[string]bool)
	navlogFlight = strings.TrimSpace(flight)

	if !enabled {
		return
	}

	if categories == "" || categories == "all" {
		for _, cat := range navLogAllCategories {
			navlogCategories[cat] = true
		}
	} else {
		for _, cat := range strings.Split(categories, ",") {
			navlogCategories[strings.TrimSpace(cat)] = true
		}
	}
}

// NavLog logs a message with timestamp, flight, and category
func NavLog(flight string, simTime time.Time, category string, format string, args ...interface{}) {
	if !navlogEnabled || !navlogCategories[category] {
		return
	}
	if navlogFlight != "" && navlogFlight != flight {
		return
	}

	// Format: [HH:MM:SS] [flight] [category] message
	fmt.Printf("[%s] [%s] [%s] %s\n", simTime.Format("15:04:05"), flight, category, fmt.Sprintf(format, args...))
}
