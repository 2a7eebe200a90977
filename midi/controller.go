package midi

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string

	// Note and controller events from the device
	Events() <-chan Event

	// Lifecycle
	Close() error
}

// Channel filter value accepting every channel
const AnyChannel = -1
