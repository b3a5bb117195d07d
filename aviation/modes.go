// aviation/modes.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

type FlightPhase int

const (
	FlightPhasePreflight FlightPhase = iota
	FlightPhaseTakeoff
	FlightPhaseClimb
	FlightPhaseCruise
	FlightPhaseDescent
	FlightPhaseApproach
	FlightPhaseGoAround
	FlightPhaseDone
)

func (p FlightPhase) String() string {
	switch p {
	case FlightPhasePreflight:
		return "PREFLIGHT"
	case FlightPhaseTakeoff:
		return "TAKEOFF"
	case FlightPhaseClimb:
		return "CLIMB"
	case FlightPhaseCruise:
		return "CRUISE"
	case FlightPhaseDescent:
		return "DESCENT"
	case FlightPhaseApproach:
		return "APPROACH"
	case FlightPhaseGoAround:
		return "GO AROUND"
	case FlightPhaseDone:
		return "DONE"
	default:
		return "unknown"
	}
}

// VerticalMode is the vertical mode currently engaged on the flight
// control unit.
type VerticalMode int

const (
	VerticalModeNone VerticalMode = iota
	VerticalModeAlt
	VerticalModeAltCapture
	VerticalModeOpenClimb
	VerticalModeOpenDescent
	VerticalModeVS
	VerticalModeFPA
	VerticalModeClimb
	VerticalModeDescent
	VerticalModeGlideSlope
	VerticalModeFinal
)

func (m VerticalMode) String() string {
	switch m {
	case VerticalModeNone:
		return "NONE"
	case VerticalModeAlt:
		return "ALT"
	case VerticalModeAltCapture:
		return "ALT*"
	case VerticalModeOpenClimb:
		return "OP CLB"
	case VerticalModeOpenDescent:
		return "OP DES"
	case VerticalModeVS:
		return "V/S"
	case VerticalModeFPA:
		return "FPA"
	case VerticalModeClimb:
		return "CLB"
	case VerticalModeDescent:
		return "DES"
	case VerticalModeGlideSlope:
		return "G/S"
	case VerticalModeFinal:
		return "FINAL"
	default:
		return "unknown"
	}
}

// RequestedVerticalMode is the mode that descent guidance asks the flight
// guidance laws to fly.
type RequestedVerticalMode int

const (
	RequestedVerticalModeNone RequestedVerticalMode = iota
	// Speed on elevator, thrust idle; the path is recovered by speed
	// control.
	RequestedVerticalModeSpeedThrust
	// Path on elevator, thrust idle.
	RequestedVerticalModeVpathThrust
	// Path on elevator, speed on thrust.
	RequestedVerticalModeVpathSpeed
	// Flight path angle on elevator, speed on thrust.
	RequestedVerticalModeFpaSpeed
	// Vertical speed on elevator, speed on thrust.
	RequestedVerticalModeVsSpeed
)

func (m RequestedVerticalMode) String() string {
	switch m {
	case RequestedVerticalModeNone:
		return "NONE"
	case RequestedVerticalModeSpeedThrust:
		return "SPEED/THRUST"
	case RequestedVerticalModeVpathThrust:
		return "VPATH/THRUST"
	case RequestedVerticalModeVpathSpeed:
		return "VPATH/SPEED"
	case RequestedVerticalModeFpaSpeed:
		return "FPA/SPEED"
	case RequestedVerticalModeVsSpeed:
		return "VS/SPEED"
	default:
		return "unknown"
	}
}
