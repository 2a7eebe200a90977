package midi

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-sightread/debug"
)

// ErrPortsTimeout is returned when the driver does not answer a port listing.
var ErrPortsTimeout = errors.New("midi: port listing timed out")

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// ManagerOptions selects which inputs become keyboards.
type ManagerOptions struct {
	// InputName restricts input to ports whose name contains it.
	// Empty accepts every port that is not a through port.
	InputName string
	// Channel filters input events; AnyChannel accepts all.
	Channel int
	Logger  debug.Logger
}

// DeviceManager handles hot-plug detection of MIDI keyboards and opens
// the synth output.
type DeviceManager struct {
	controllers  map[string]Controller
	mu           sync.RWMutex
	events       chan DeviceEvent
	notes        chan Event
	pollRate     time.Duration
	refreshPause time.Duration
	opts         ManagerOptions
	log          debug.Logger
}

// NewDeviceManager creates a new device manager
func NewDeviceManager(opts ManagerOptions) *DeviceManager {
	if opts.Logger == nil {
		opts.Logger = debug.Nop
	}
	return &DeviceManager{
		controllers:  make(map[string]Controller),
		events:       make(chan DeviceEvent, 16),
		notes:        make(chan Event, 256),
		pollRate:     time.Second,
		refreshPause: time.Second,
		opts:         opts,
		log:          opts.Logger,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Notes merges the note events of every connected keyboard.
func (dm *DeviceManager) Notes() <-chan Event {
	return dm.notes
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		copy[k] = v
	}
	return copy
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.Scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.Scan()
		}
	}
}

// listPorts fetches the current ports with a timeout (CoreMIDI can hang).
func listPorts() ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		inPorts := gomidi.GetInPorts()
		outPorts := gomidi.GetOutPorts()
		ch <- portsResult{inPorts: inPorts, outPorts: outPorts}
	}()

	select {
	case result := <-ch:
		return result.inPorts, result.outPorts, nil
	case <-time.After(3 * time.Second):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, nil, ErrPortsTimeout
	}
}

// Scan connects new keyboards and drops vanished ones.
func (dm *DeviceManager) Scan() {
	inPorts, _, err := listPorts()
	if err != nil {
		dm.log.Log("midi", "scan: %v", err)
		return
	}

	// Build map of what we see now
	seenIDs := make(map[string]bool)

	for i, inPort := range inPorts {
		id := inPort.String()
		if !acceptInput(id, dm.opts.InputName) {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		kb, err := NewKeyboardController(id, inPorts[i], dm.opts.Channel)
		if err != nil {
			dm.log.Log("midi", "connect %s: %v", id, err)
			continue
		}
		dm.add(kb)
	}

	// Check for disconnects
	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		c := dm.controllers[id]
		c.Close()
		delete(dm.controllers, id)
		dm.log.Log("midi", "disconnected %s", id)
		dm.emit(DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
	dm.mu.Unlock()
}

// add registers a controller and forwards its notes.
func (dm *DeviceManager) add(c Controller) {
	dm.mu.Lock()
	dm.controllers[c.ID()] = c
	dm.mu.Unlock()

	go func() {
		for ev := range c.Events() {
			select {
			case dm.notes <- ev:
			default:
				dm.log.Log("midi", "note queue full, dropped %v", ev)
			}
		}
	}()

	dm.log.Log("midi", "connected %s", c.ID())
	dm.emit(DeviceEvent{Type: DeviceConnected, Controller: c, ID: c.ID()})
}

func (dm *DeviceManager) emit(ev DeviceEvent) {
	select {
	case dm.events <- ev:
	default:
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// Close disconnects every keyboard.
func (dm *DeviceManager) Close() {
	dm.closeAll()
}

// OpenOutput opens the output port matching name, falling back to the
// first usable port. With no ports at all the output is silent.
func (dm *DeviceManager) OpenOutput(name string) *Output {
	out := Silent(dm.log)
	dm.openInto(out, name)
	return out
}

// Refresh closes the output, waits for the driver to re-enumerate and opens
// the named port again.
func (dm *DeviceManager) Refresh(out *Output, name string) {
	out.Close()
	time.Sleep(dm.refreshPause)
	dm.openInto(out, name)
}

func (dm *DeviceManager) openInto(out *Output, name string) {
	_, outPorts, err := listPorts()
	if err != nil {
		dm.log.Log("midi", "open output: %v", err)
		return
	}
	names := make([]string, len(outPorts))
	for i, p := range outPorts {
		names[i] = p.String()
	}
	i := selectOutput(names, name)
	if i < 0 {
		dm.log.Log("midi", "no output ports, running silent")
		return
	}
	send, err := gomidi.SendTo(outPorts[i])
	if err != nil {
		dm.log.Log("midi", "open output %s: %v", names[i], err)
		return
	}
	out.swap(names[i], outPorts[i], send)
	dm.log.Log("midi", "output %s", names[i])
}

// PortNames lists input and output port names.
func PortNames() (ins, outs []string, err error) {
	inPorts, outPorts, err := listPorts()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range inPorts {
		ins = append(ins, p.String())
	}
	for _, p := range outPorts {
		outs = append(outs, p.String())
	}
	return ins, outs, nil
}

// selectOutput picks the port matching want, else the first non-through
// port, else the first port. -1 means there are none.
func selectOutput(names []string, want string) int {
	if len(names) == 0 {
		return -1
	}
	if want != "" {
		w := strings.ToLower(want)
		for i, n := range names {
			if strings.ToLower(n) == w {
				return i
			}
		}
		for i, n := range names {
			if strings.Contains(strings.ToLower(n), w) {
				return i
			}
		}
	}
	for i, n := range names {
		if !isThroughPort(n) {
			return i
		}
	}
	return 0
}

func acceptInput(name, want string) bool {
	if want != "" {
		return strings.Contains(strings.ToLower(name), strings.ToLower(want))
	}
	return !isThroughPort(name)
}

func isThroughPort(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "through") || strings.Contains(name, "thru")
}
