package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
)

// Codec converts domain events to JSON and back by event type
type Codec struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewCodec creates a codec that knows every event raised by the recognition jobs
func NewCodec() *Codec {
	c := &Codec{types: make(map[string]reflect.Type)}
	c.Register(ledger.EventTypeBlanketOrderAdjusted, &ledger.BlanketOrderAdjustedEvent{})
	c.Register(revenue.EventTypeRevenueEventRecorded, &revenue.RevenueEventRecordedEvent{})
	c.Register(revenue.EventTypeRevenueEventRemoved, &revenue.RevenueEventRemovedEvent{})
	return c
}

// Register maps eventType to the concrete type of sample
func (c *Codec) Register(eventType string, sample shared.DomainEvent) {
	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	c.mu.Lock()
	c.types[eventType] = t
	c.mu.Unlock()
}

// Encode marshals an event to JSON
func (c *Codec) Encode(e shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", e.EventType(), err)
	}
	return data, nil
}

// Decode unmarshals data into a new value of the type registered for eventType
func (c *Codec) Decode(eventType string, data []byte) (shared.DomainEvent, error) {
	c.mu.RLock()
	t, ok := c.types[eventType]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", eventType, err)
	}
	e, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("registered type for %s is not a domain event", eventType)
	}
	return e, nil
}

// Types returns the registered event types in sorted order
func (c *Codec) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.types))
	for t := range c.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
