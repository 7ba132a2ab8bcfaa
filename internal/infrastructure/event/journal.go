package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JournalEntry is one stored domain event
type JournalEntry struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	EventType     string    `gorm:"type:varchar(100);not null;index"`
	AggregateType string    `gorm:"type:varchar(100);not null"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Payload       string    `gorm:"type:text;not null"`
	OccurredAt    time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "event_journal"
}

// Journal appends every published domain event to the event_journal table,
// giving an audit trail of revenue events and blanket order movements
type Journal struct {
	db    *gorm.DB
	codec *Codec
}

var _ shared.EventHandler = (*Journal)(nil)

// NewJournal creates a journal writing through db
func NewJournal(db *gorm.DB, codec *Codec) *Journal {
	return &Journal{db: db, codec: codec}
}

// EventTypes is empty: the journal subscribes to every event
func (j *Journal) EventTypes() []string {
	return nil
}

// Handle stores e; an event id that is already stored is ignored
func (j *Journal) Handle(ctx context.Context, e shared.DomainEvent) error {
	payload, err := j.codec.Encode(e)
	if err != nil {
		return err
	}
	entry := &JournalEntry{
		ID:            e.EventID(),
		EventType:     e.EventType(),
		AggregateType: e.AggregateType(),
		AggregateID:   e.AggregateID(),
		Payload:       string(payload),
		OccurredAt:    e.OccurredAt(),
		CreatedAt:     time.Now(),
	}
	err = j.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to journal %s event: %w", e.EventType(), err)
	}
	return nil
}

// ForAggregate decodes the journaled events of one aggregate, oldest first
func (j *Journal) ForAggregate(ctx context.Context, aggregateID uuid.UUID) ([]shared.DomainEvent, error) {
	var entries []JournalEntry
	err := j.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("occurred_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	events := make([]shared.DomainEvent, 0, len(entries))
	for _, entry := range entries {
		e, err := j.codec.Decode(entry.EventType, []byte(entry.Payload))
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
