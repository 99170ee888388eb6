package model

// EPSMode is the EPS operating mode (spec §3).
type EPSMode uint8

const (
	EPSModeInit EPSMode = iota
	EPSModeNormal
	EPSModeDegraded
	EPSModeFailSafe
	EPSModeSleep
)

func (m EPSMode) String() string {
	switch m {
	case EPSModeInit:
		return "Init"
	case EPSModeNormal:
		return "Normal"
	case EPSModeDegraded:
		return "Degraded"
	case EPSModeFailSafe:
		return "FailSafe"
	case EPSModeSleep:
		return "Sleep"
	default:
		return "Invalid"
	}
}

// EPSStatus is the EPS status tag (spec §3).
type EPSStatus uint8

const (
	EPSStatusInitializing EPSStatus = iota
	EPSStatusReady
	EPSStatusActive
	EPSStatusDegraded
	EPSStatusFault
	EPSStatusSleep
)

func (s EPSStatus) String() string {
	switch s {
	case EPSStatusInitializing:
		return "Initializing"
	case EPSStatusReady:
		return "Ready"
	case EPSStatusActive:
		return "Active"
	case EPSStatusDegraded:
		return "Degraded"
	case EPSStatusFault:
		return "Fault"
	case EPSStatusSleep:
		return "Sleep"
	default:
		return "Invalid"
	}
}
