package schema

import (
	"encoding/json"
	"sync"

	"github.com/yanun0323/errors"
)

// ErrUnknownEventType is returned when decoding a payload whose type name
// has no registered decoder.
var ErrUnknownEventType = errors.New("unknown event type")

// DecodeFunc reconstructs a payload value from its JSON form.
type DecodeFunc func(data []byte) (Event, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]DecodeFunc{}
)

func init() {
	Register(TypeMarketData, decodeAs[MarketDataEvent])
	Register(TypeSignal, decodeAs[SignalEvent])
	Register(TypeOrder, decodeAs[OrderEvent])
	Register(TypeFill, decodeAs[FillEvent])
	Register(TypeFeature, decodeAs[FeatureEvent])
	Register(TypeOrderBook, decodeAs[OrderBookEvent])
	Register(TypeAggregatedData, decodeAs[AggregatedDataEvent])
}

// Register associates an event type name with a decoder. Built-in payloads
// are registered up front; external payload types register theirs before
// decoding captures that contain them. Later registrations win.
func Register(eventType string, decode DecodeFunc) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[eventType] = decode
}

// Decode reconstructs a payload from its type name and JSON form.
func Decode(eventType string, data []byte) (Event, error) {
	decodersMu.RLock()
	decode, ok := decoders[eventType]
	decodersMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEventType, "type: %s", eventType)
	}
	return decode(data)
}

func decodeAs[E Event](data []byte) (Event, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "unmarshal event payload")
	}
	return e, nil
}
