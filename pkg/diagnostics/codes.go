package diagnostics

// Well-known diagnostic trouble codes, grounded in the original C
// enumeration (ebs_types.h's ebs_dtc_code_t) and spec §4.6's EPS
// codes. Only the codes this core actually sets are declared here;
// the remainder of the original enumeration (actuator/voltage/CAN
// DTCs) belongs to collaborators this core does not implement.
//
// The original C enumeration assigns 0x5001-0x5003 to generic safety
// faults (critical fault / watchdog timeout / memory corruption) while
// spec §4.6 pins the same three numeric codes to specific EPS failure
// modes (assist clamp / direction mismatch / oscillation). Since the
// two uses never fire from the same subsystem in the same build, and
// spec §4.6 is explicit about the numbers, the EPS meanings win; see
// DESIGN.md's Open Questions for the resolution.
const (
	CodeNone Code = 0x0000

	CodeWheelSpeedSensorFL Code = 0x1001
	CodeWheelSpeedSensorFR Code = 0x1002
	CodeWheelSpeedSensorRL Code = 0x1003
	CodeWheelSpeedSensorRR Code = 0x1004

	CodeAlgorithmSelfTestFailed Code = 0x4005

	CodeEPSAssistLimited       Code = 0x5001
	CodeEPSDirectionMismatch   Code = 0x5002
	CodeEPSOscillationDetected Code = 0x5003
	CodeDualChannelMismatch    Code = 0x5004
)

// WheelSensorCode maps a wheel position (model.WheelPosition, 0..3) to
// its corresponding wheel-speed-sensor DTC.
func WheelSensorCode(wheel uint8) Code {
	switch wheel {
	case 0:
		return CodeWheelSpeedSensorFL
	case 1:
		return CodeWheelSpeedSensorFR
	case 2:
		return CodeWheelSpeedSensorRL
	case 3:
		return CodeWheelSpeedSensorRR
	default:
		return CodeNone
	}
}
