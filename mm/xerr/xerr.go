// Package xerr defines the failure-kind taxonomy surfaced at the core's API
// boundary (spec §7). Internal recoverable numeric issues — a failed cubic
// fit, a bad_Edata detection — are handled locally and never become a Fault.
package xerr

import "fmt"

// Kind enumerates the failure kinds the core can surface.
type Kind int

const (
	BadParameter Kind = iota
	BadIndex
	BadLock
	BadPointer
	BadCode
	ResourceAlloc
	ResourceDealloc
	Overflow
	DeviceFull
	BadUserInput
	BadData
	IncompleteInitialization
	ProgramLogicError
	NoMem
	BadThread
)

func (k Kind) String() string {
	switch k {
	case BadParameter:
		return "bad_parameter"
	case BadIndex:
		return "bad_index"
	case BadLock:
		return "bad_lock"
	case BadPointer:
		return "bad_pointer"
	case BadCode:
		return "bad_code"
	case ResourceAlloc:
		return "resource_alloc"
	case ResourceDealloc:
		return "resource_dealloc"
	case Overflow:
		return "overflow"
	case DeviceFull:
		return "device_full"
	case BadUserInput:
		return "bad_user_input"
	case BadData:
		return "bad_data"
	case IncompleteInitialization:
		return "incomplete_initialization"
	case ProgramLogicError:
		return "program_logic_error"
	case NoMem:
		return "no_mem"
	case BadThread:
		return "bad_thread"
	default:
		return "unknown"
	}
}

// Fault is the exception envelope carried across the core's API boundary.
// It mirrors Oxs_Exception: a message, an optional subtype tag, an optional
// source instance name, an optional file/line, and a display-count hint
// used by non-interactive loggers to decide how many times to print it.
type Fault struct {
	Kind             Kind
	Message          string
	Subtype          string
	Instance         string
	File             string
	Line             int
	DisplayCountHint int

	wrapped error
}

func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message, DisplayCountHint: 1}
}

func Newf(kind Kind, format string, args ...any) *Fault {
	return New(kind, fmt.Sprintf(format, args...))
}

// At attaches a source instance name and file/line, mirroring OXS_THROW's
// file/line capture.
func (f *Fault) At(instance, file string, line int) *Fault {
	f.Instance = instance
	f.File = file
	f.Line = line
	return f
}

// WithSubtype attaches a finer-grained tag beneath Kind.
func (f *Fault) WithSubtype(subtype string) *Fault {
	f.Subtype = subtype
	return f
}

func (f *Fault) Wrap(err error) *Fault {
	f.wrapped = err
	return f
}

func (f *Fault) Unwrap() error { return f.wrapped }

func (f *Fault) Error() string {
	if f.Instance != "" {
		return fmt.Sprintf("%s: %s [%s]", f.Kind, f.Message, f.Instance)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// ThreadFault wraps an error captured inside a worker goroutine with the
// "thread N" suffix the error-relay protocol (spec §7) requires.
func ThreadFault(threadID int, cause error) *Fault {
	return &Fault{
		Kind:             BadThread,
		Message:          fmt.Sprintf("\nException thrown in thread %d: %v", threadID, cause),
		DisplayCountHint: 1,
		wrapped:          cause,
	}
}
