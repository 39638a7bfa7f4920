package engine

// Status is the loading state of a section.
type Status int

// Section lifecycle states. A section starts Idle, moves to Loading
// when triggered, and settles in Loaded or Failed when its fetch
// completes. Reset returns it to Idle from any state.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

// String returns the lowercase state name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a completion state. Loaded and
// Failed are terminal; Idle and Loading are not.
func (s Status) Terminal() bool {
	return s == StatusLoaded || s == StatusFailed
}

// MarshalText renders the status as its lowercase name so JSON payloads
// carry "loading" rather than an opaque integer.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
