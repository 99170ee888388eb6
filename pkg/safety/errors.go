package safety

import "errors"

// Error taxonomy from spec §7. These are sentinel values, compared
// with errors.Is, matching the teacher's root errors.go idiom of one
// package-level var per failure kind rather than typed exceptions.
var (
	ErrInvalidParam        = errors.New("invalid parameter")
	ErrNotInitialized      = errors.New("component not initialized")
	ErrTimeout             = errors.New("operation timed out")
	ErrBusy                = errors.New("resource busy")
	ErrOutOfRange          = errors.New("value out of range")
	ErrImplausible         = errors.New("rate of change implausible")
	ErrStuckSensor         = errors.New("sensor reading appears stuck")
	ErrDualChannelMismatch = errors.New("dual channel comparison mismatch")
	ErrMemoryCorruption    = errors.New("memory canary corrupted")
	ErrWatchdogViolation   = errors.New("watchdog violation")
	ErrBufferFull          = errors.New("buffer full")
	ErrDirectionMismatch   = errors.New("assist direction mismatch")
	ErrOscillationDetected = errors.New("oscillation detected")
	ErrSelfTestFailed      = errors.New("self-test failed")
	ErrFault               = errors.New("fault")
)
