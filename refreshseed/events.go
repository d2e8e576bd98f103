package refreshseed

import "github.com/ethereum/go-ethereum/common"

// Event is implemented by every refresh-cycle event the driver emits.
type Event interface{ isRefreshEvent() }

// SeedsSelected fires once hand_first_time trims the score list down
// to the final seed set.
type SeedsSelected struct{ Count uint32 }

func (SeedsSelected) isRefreshEvent() {}

// ChallengeRestarted fires whenever a challenge game restarts with a
// new leading score, whether from arbitration or a confirmed
// omission proof.
type ChallengeRestarted struct {
	Target common.Address
	Score  uint64
}

func (ChallengeRestarted) isRefreshEvent() {}

// MissedPathPresented fires when a challenger submits an
// evidence-of-missed-path claim that could not be immediately
// resolved and now awaits arbitration.
type MissedPathPresented struct {
	Challenger common.Address
	Target     common.Address
	Index      uint32
}

func (MissedPathPresented) isRefreshEvent() {}

// EventSink receives refresh-cycle events.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }
