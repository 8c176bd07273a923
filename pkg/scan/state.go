package scan

// RunState tracks one scan run from construction to teardown.
type RunState int

const (
	StateInit RunState = iota
	StateConfiguring
	StateScanning
	StateFinalizing
	StateClosed
)

// String returns the string representation.
func (s RunState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConfiguring:
		return "configuring"
	case StateScanning:
		return "scanning"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// FileState tracks one file while the run is scanning.
type FileState int

const (
	FileIdle FileState = iota
	FileOpened
	FileClosed
)

// String returns the string representation.
func (s FileState) String() string {
	switch s {
	case FileIdle:
		return "idle"
	case FileOpened:
		return "opened"
	case FileClosed:
		return "closed"
	default:
		return "unknown"
	}
}
