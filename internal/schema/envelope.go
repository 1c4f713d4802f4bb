package schema

// Delivery priority bounds. Lower is more urgent.
const (
	PriorityHighest uint8 = 0
	PriorityDefault uint8 = 5
	PriorityLowest  uint8 = 9
)

// Fixed subscription keys shared by publishers and subscribers.
const (
	TypeMarketData     = "MarketData"
	TypeSignal         = "Signal"
	TypeFill           = "Fill"
	TypeOrder          = "Order"
	TypeFeature        = "Feature"
	TypeOrderBook      = "OrderBook"
	TypeAggregatedData = "AggregatedData"
)

// Event is implemented by every payload crossing the bus.
type Event interface {
	// EventType returns the stable name used as the subscription key.
	EventType() string
}

// Prioritized is implemented by payloads carrying an intrinsic delivery
// priority. The bus consults it when no explicit priority is given.
type Prioritized interface {
	Event
	Priority() uint8
}

// MarketEvent is implemented by payloads tied to market time.
type MarketEvent interface {
	Event
	// EventTimestamp returns the event time in nanoseconds.
	EventTimestamp() int64
	// EventSymbol returns the instrument symbol, empty when none.
	EventSymbol() string
}

// Envelope wraps an event payload with bus delivery metadata. The payload
// is treated as immutable after publication.
type Envelope struct {
	ID          uint64
	TimestampNs int64
	Priority    uint8
	Event       Event
}

// ClampPriority bounds p to the supported range.
func ClampPriority(p uint8) uint8 {
	if p > PriorityLowest {
		return PriorityLowest
	}
	return p
}
