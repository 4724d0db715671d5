package domain

import "strings"

// InstanceStatus is the outcome of processing one instance during a pass.
type InstanceStatus string

const (
	// InstanceStatusUpdated indicates the instance was merged against its current template.
	InstanceStatusUpdated InstanceStatus = "updated"
	// InstanceStatusReverted indicates the instance was re-instantiated from its template.
	InstanceStatusReverted InstanceStatus = "reverted"
	// InstanceStatusCurrent indicates the instance already matched its template and was left alone.
	InstanceStatusCurrent InstanceStatus = "current"
	// InstanceStatusSkipped indicates the object carried no template link.
	InstanceStatusSkipped InstanceStatus = "skipped"
	// InstanceStatusFailed indicates the instance was left untouched after an error.
	InstanceStatusFailed InstanceStatus = "failed"
)

// IsSuccess reports whether the status leaves the instance in an up to date state.
func (s InstanceStatus) IsSuccess() bool {
	switch s {
	case InstanceStatusUpdated, InstanceStatusReverted, InstanceStatusCurrent:
		return true
	default:
		return false
	}
}

// NormalizeInstanceStatus converts a string to an InstanceStatus, defaulting to skipped if unknown.
func NormalizeInstanceStatus(s string) InstanceStatus {
	switch strings.ToLower(s) {
	case string(InstanceStatusUpdated):
		return InstanceStatusUpdated
	case string(InstanceStatusReverted):
		return InstanceStatusReverted
	case string(InstanceStatusCurrent):
		return InstanceStatusCurrent
	case string(InstanceStatusFailed):
		return InstanceStatusFailed
	default:
		return InstanceStatusSkipped
	}
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
