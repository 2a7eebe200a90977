package midi

import (
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-sightread/debug"
)

// Output queues events during a frame and sends them on Flush. An output
// without a sender is silent: events are accepted and dropped.
type Output struct {
	mu    sync.Mutex
	name  string
	port  drivers.Out
	send  func(gomidi.Message) error
	queue []Event
	log   debug.Logger
}

// NewOutput wraps a send function, e.g. the result of gomidi.SendTo.
func NewOutput(name string, send func(gomidi.Message) error, log debug.Logger) *Output {
	if log == nil {
		log = debug.Nop
	}
	return &Output{name: name, send: send, log: log}
}

// Silent returns an output that drops everything.
func Silent(log debug.Logger) *Output {
	return NewOutput("", nil, log)
}

func (o *Output) Name() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.name
}

func (o *Output) IsSilent() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send == nil
}

// Send queues an event until the next Flush.
func (o *Output) Send(ev Event) {
	o.mu.Lock()
	o.queue = append(o.queue, ev)
	o.mu.Unlock()
}

// Flush sends queued events in order. The first error stops the flush and
// the remaining events are dropped.
func (o *Output) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	queue := o.queue
	o.queue = o.queue[:0]
	if o.send == nil {
		return nil
	}
	for _, ev := range queue {
		msg := ev.Message()
		if msg == nil {
			continue
		}
		if err := o.send(msg); err != nil {
			o.log.Log("midi", "send to %s: %v", o.name, err)
			return err
		}
	}
	return nil
}

// Panic sends all-notes-off on every channel right away.
func (o *Output) Panic() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = o.queue[:0]
	if o.send == nil {
		return
	}
	for ch := uint8(0); ch < 16; ch++ {
		o.send(Event{Type: CC, Channel: ch, Note: CCAllNotesOff}.Message())
	}
}

// Close closes the underlying port and turns the output silent.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.send = nil
	o.queue = nil
	if o.port != nil {
		err := o.port.Close()
		o.port = nil
		return err
	}
	return nil
}

// swap replaces the port and sender, used when reopening a device.
func (o *Output) swap(name string, port drivers.Out, send func(gomidi.Message) error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.name = name
	o.port = port
	o.send = send
}
