package tilemesh

import "fmt"

// Status is the result bitmask every query and mutation operation
// returns: a high-level outcome (Success/Failure/InProgress) combined
// with detail bits. Operations never use panics or Go errors for
// expected conditions — callers branch on the bits.
type Status uint32

// High level status bits.
const (
	Failure    Status = 1 << 31 // Operation failed.
	Success    Status = 1 << 30 // Operation succeeded.
	InProgress Status = 1 << 29 // Operation (sliced query) still running.

	// StatusDetailMask isolates the detail bits below.
	StatusDetailMask = 0x00ffffff

	WrongMagic     Status = 1 << 0 // Input data not recognized.
	WrongVersion   Status = 1 << 1 // Input data in an unsupported version.
	OutOfMemory    Status = 1 << 2 // Pool exhausted.
	InvalidParam   Status = 1 << 3 // An input parameter was invalid.
	BufferTooSmall Status = 1 << 4 // Output buffer saturated before completion.
	OutOfNodes     Status = 1 << 5 // Search ran out of scratch nodes.
	PartialResult  Status = 1 << 6 // Best-effort result; target not reached.
	RebuildFailed  Status = 1 << 7 // External build pipeline errored.
)

// Error implements the error interface so a Status can be returned or
// logged anywhere a Go error is expected.
func (s Status) Error() string {
	if s&Failure != 0 {
		switch s & StatusDetailMask {
		case WrongMagic:
			return "wrong magic number"
		case WrongVersion:
			return "wrong version number"
		case OutOfMemory:
			return "out of memory"
		case InvalidParam:
			return "invalid parameter"
		case OutOfNodes:
			return "out of nodes"
		case PartialResult:
			return "partial result"
		case RebuildFailed:
			return "rebuild failed"
		default:
			return fmt.Sprintf("unspecified failure 0x%x", uint32(s))
		}
	}
	if s&InProgress != 0 {
		return "in progress"
	}
	return "success"
}

// Succeeded reports whether s carries the Success bit.
func Succeeded(s Status) bool { return s&Success != 0 }

// Failed reports whether s carries the Failure bit.
func Failed(s Status) bool { return s&Failure != 0 }

// HasDetail reports whether s carries the given detail bit.
func HasDetail(s Status, detail Status) bool { return s&detail != 0 }
