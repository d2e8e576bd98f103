package challenge

import "github.com/ethereum/go-ethereum/common"

// Event is implemented by every event this package emits. The core
// has no event-log collaborator of its own — Engine hands emitted
// events to an EventSink so the driver can forward them wherever the
// host process logs or indexes events.
type Event interface {
	isEvent()
}

// Challenged is emitted when a new challenge is opened.
type Challenged struct {
	Challenger common.Address
	Target     common.Address
	Pathfinder common.Address
	Quantity   uint32
}

func (Challenged) isEvent() {}

// EventSink receives events as they're emitted. A nil sink is valid
// and simply drops events.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) {
	if f != nil {
		f(e)
	}
}
