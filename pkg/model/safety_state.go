package model

// SafetyState is the safety supervisor's overall operating state
// (spec C4). It escalates on fault severity; only Degraded can return
// to Operational, and Shutdown is terminal until an external reset.
type SafetyState uint8

const (
	SafetyInit SafetyState = iota
	SafetyOperational
	SafetyDegraded
	SafetyFault
	SafetyShutdown
)

var safetyStateNames = map[SafetyState]string{
	SafetyInit:        "INIT",
	SafetyOperational: "OPERATIONAL",
	SafetyDegraded:    "DEGRADED",
	SafetyFault:       "FAULT",
	SafetyShutdown:    "SHUTDOWN",
}

func (s SafetyState) String() string {
	if name, ok := safetyStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ViolationKind enumerates the safety-primitive failure kinds that the
// per-cycle supervisor monitor can report (spec §4.4).
type ViolationKind uint8

const (
	ViolationTiming ViolationKind = iota
	ViolationMemory
	ViolationWatchdog
	ViolationDualChannel
	ViolationIntegrity
)

func (v ViolationKind) String() string {
	switch v {
	case ViolationTiming:
		return "Timing"
	case ViolationMemory:
		return "Memory"
	case ViolationWatchdog:
		return "Watchdog"
	case ViolationDualChannel:
		return "DualChannel"
	case ViolationIntegrity:
		return "Integrity"
	default:
		return "Unknown"
	}
}

// Severity is the escalation severity assigned to a violation kind.
type Severity uint8

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// DefaultSeverity is the constant violation -> severity mapping from
// spec §4.4.
func DefaultSeverity(kind ViolationKind) Severity {
	switch kind {
	case ViolationTiming:
		return SeverityMedium
	case ViolationMemory:
		return SeverityHigh
	case ViolationWatchdog:
		return SeverityHigh
	case ViolationDualChannel:
		return SeverityHigh
	case ViolationIntegrity:
		return SeverityCritical
	default:
		return SeverityCritical
	}
}
