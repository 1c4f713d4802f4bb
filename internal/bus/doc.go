/*
Bus distributes event envelopes inside the process.

# Module
  - dynamic: string-keyed broadcast channels, lazily created, per-subscriber buffers
  - typed: compile-time keyed bounded queues with competing receivers
  - publisher: priority publish helpers

# Source
  - market data from feed or replay
  - signals, orders, fills, features from strategy and execution components

# Produce
  - envelopes to subscribers
  - envelope copies to the recorder when recording is enabled

# Sharded
  - by event type name (dynamic) and element type (typed)
*/
package bus
