// log/navlog.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

// Available VNAV trace logging categories
const (
	NavLogProfile  = "profile"
	NavLogCruise   = "cruise"
	NavLogDescent  = "descent"
	NavLogTracker  = "tracker"
	NavLogGuidance = "guidance"
	NavLogMargin   = "margin"
)

var navLogAllCategories = []string{NavLogProfile, NavLogCruise, NavLogDescent, NavLogTracker,
	NavLogGuidance, NavLogMargin}
