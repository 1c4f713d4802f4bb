package schema

// SignalDirection describes the direction of a trading signal.
type SignalDirection uint16

const (
	SignalDirectionUnknown SignalDirection = iota
	SignalDirectionLong
	SignalDirectionShort
	SignalDirectionNeutral
)

// OrderSide describes order direction.
type OrderSide uint16

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

// OrderType describes order type.
type OrderType uint16

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
)

// MarketDataEvent is a single top-of-book tick.
type MarketDataEvent struct {
	TimestampNs int64   `json:"timestamp_ns"`
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Volume      float64 `json:"volume"`
	BidPrice    float64 `json:"bid_price"`
	BidSize     float64 `json:"bid_size"`
	AskPrice    float64 `json:"ask_price"`
	AskSize     float64 `json:"ask_size"`
}

func (e MarketDataEvent) EventType() string     { return TypeMarketData }
func (e MarketDataEvent) EventTimestamp() int64 { return e.TimestampNs }
func (e MarketDataEvent) EventSymbol() string   { return e.Symbol }

// SignalEvent is a strategy decision emitted toward execution.
type SignalEvent struct {
	SignalID    uint64            `json:"signal_id"`
	TimestampNs int64             `json:"timestamp_ns"`
	StrategyID  string            `json:"strategy_id"`
	Symbol      string            `json:"symbol"`
	Direction   SignalDirection   `json:"direction"`
	Strength    float64           `json:"strength"`
	TargetPrice float64           `json:"target_price,omitempty"`
	StopLoss    float64           `json:"stop_loss,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (e SignalEvent) EventType() string     { return TypeSignal }
func (e SignalEvent) EventTimestamp() int64 { return e.TimestampNs }
func (e SignalEvent) EventSymbol() string   { return e.Symbol }

// OrderEvent is an order submission derived from a signal.
type OrderEvent struct {
	OrderID     uint64    `json:"order_id"`
	SignalID    uint64    `json:"signal_id"`
	TimestampNs int64     `json:"timestamp_ns"`
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Type        OrderType `json:"type"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price,omitempty"`
}

func (e OrderEvent) EventType() string     { return TypeOrder }
func (e OrderEvent) EventTimestamp() int64 { return e.TimestampNs }
func (e OrderEvent) EventSymbol() string   { return e.Symbol }

// FillEvent is an execution report for a previously submitted order.
type FillEvent struct {
	FillID      uint64    `json:"fill_id"`
	OrderID     uint64    `json:"order_id"`
	TimestampNs int64     `json:"timestamp_ns"`
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	Commission  float64   `json:"commission"`
	SlippageBps float64   `json:"slippage_bps"`
}

func (e FillEvent) EventType() string     { return TypeFill }
func (e FillEvent) EventTimestamp() int64 { return e.TimestampNs }
func (e FillEvent) EventSymbol() string   { return e.Symbol }

// FeatureEvent carries computed feature values for a symbol.
type FeatureEvent struct {
	TimestampNs int64              `json:"timestamp_ns"`
	Symbol      string             `json:"symbol"`
	Features    map[string]float64 `json:"features"`
}

func (e FeatureEvent) EventType() string     { return TypeFeature }
func (e FeatureEvent) EventTimestamp() int64 { return e.TimestampNs }
func (e FeatureEvent) EventSymbol() string   { return e.Symbol }

// PriceLevel is one side level of an order book snapshot.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBookEvent is a depth snapshot.
type OrderBookEvent struct {
	TimestampNs int64        `json:"timestamp_ns"`
	Symbol      string       `json:"symbol"`
	Bids        []PriceLevel `json:"bids"`
	Asks        []PriceLevel `json:"asks"`
}

func (e OrderBookEvent) EventType() string     { return TypeOrderBook }
func (e OrderBookEvent) EventTimestamp() int64 { return e.TimestampNs }
func (e OrderBookEvent) EventSymbol() string   { return e.Symbol }

// AggregatedDataEvent is an OHLCV bar aggregated over a timeframe.
type AggregatedDataEvent struct {
	TimestampNs int64   `json:"timestamp_ns"`
	Symbol      string  `json:"symbol"`
	Timeframe   string  `json:"timeframe"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	VWAP        float64 `json:"vwap"`
}

func (e AggregatedDataEvent) EventType() string     { return TypeAggregatedData }
func (e AggregatedDataEvent) EventTimestamp() int64 { return e.TimestampNs }
func (e AggregatedDataEvent) EventSymbol() string   { return e.Symbol }
