package bus

import "main/internal/schema"

// Publisher binds priority publish helpers to one bus.
type Publisher struct {
	bus *EventBus
}

// NewPublisher creates a publisher for b.
func NewPublisher(b *EventBus) *Publisher {
	return &Publisher{bus: b}
}

// Publish sends event at its default priority.
func (p *Publisher) Publish(event schema.Event) error {
	return p.bus.Publish(event)
}

// PublishHighPriority sends event at the highest priority.
func (p *Publisher) PublishHighPriority(event schema.Event) error {
	return p.bus.PublishWithPriority(event, schema.PriorityHighest)
}

// PublishLowPriority sends event at the lowest priority.
func (p *Publisher) PublishLowPriority(event schema.Event) error {
	return p.bus.PublishWithPriority(event, schema.PriorityLowest)
}
